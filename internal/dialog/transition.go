package dialog

import (
	"fmt"
	"time"

	"github.com/potolkibot/leadbot/internal/extract"
	"github.com/potolkibot/leadbot/internal/intent"
	"github.com/potolkibot/leadbot/internal/leads"
	"github.com/potolkibot/leadbot/internal/memory"
	"github.com/potolkibot/leadbot/internal/pricing"
)

// Meta carries channel-specific context alongside an inbound message.
type Meta struct {
	MessageID string
	Username  string
	Name      string
	ChatURL   string
	ItemURL   string
	ItemTitle string
}

// Input is one inbound customer message addressed to the funnel.
type Input struct {
	Platform string
	UserID   string
	Text     string
	Meta     Meta
}

// cityMatcher resolves a supported city from free text.
type cityMatcher interface {
	Match(text string) string
}

// estimator is the pricing lookup the funnel needs.
type estimator interface {
	Calculate(city string, areaM2 float64, extras []string) pricing.Estimate
}

// outcome is everything one turn decided. The engine shell executes
// the side effects (alerts, lead persistence, completion call) after
// the pure part has finished mutating memory.
type outcome struct {
	reply          string
	branch         string
	allowPhoneEcho bool
	allowGreeting  bool
	promoImage     bool
	needLLM        bool
	suppressed     bool
	escalated      bool
	hotAlerted     bool
	alerts         []string
	lead           *leads.Lead
}

// advance runs one funnel turn over mem. It is pure apart from the
// injected lookups: every decision, flag change and effect is derived
// from memory, the message and the clock.
func advance(mem *memory.Memory, in Input, now time.Time, cities cityMatcher, price estimator, manualWindow time.Duration) *outcome {
	out := &outcome{}

	// the dedup marker makes at-least-once delivery harmless
	if in.Meta.MessageID != "" && mem.LastProcessedMessageID == in.Meta.MessageID {
		out.suppressed = true
		out.branch = "duplicate"
		return out
	}

	first := !mem.Started
	out.allowGreeting = first
	text := in.Text

	markProcessed := func() {
		mem.Started = true
		if in.Meta.MessageID != "" {
			mem.LastProcessedMessageID = in.Meta.MessageID
		}
	}

	// a human asked for the conversation: hand off before anything else
	if intent.HumanEscalation(text) && !mem.InManualWindow(now) {
		mem.ManualUntil = now.Add(manualWindow).Unix()
		mem.PushTurn("user", text)
		out.alerts = append(out.alerts, escalationAlertText(in.Platform, in.UserID, text, in.Meta))
		out.reply = escalationAck
		out.branch = "escalation"
		out.escalated = true
		markProcessed()
		return out
	}

	if mem.InManualWindow(now) {
		mem.PushTurn("user", text)
		out.suppressed = true
		out.branch = "manual_window"
		markProcessed()
		return out
	}

	mem.PushTurn("user", text)

	// ---- facts ----
	if a := extract.Area(text); a > 0 {
		mem.AreaM2 = a
		mem.AskedArea = false
	}
	if extras := extract.Extras(text); len(extras) > 0 {
		mem.Extras = extras
	}

	// area heuristic: catch a bare number when the message is already
	// about price or answers a pending area question. The asked flag is
	// cleared once answered so a later "Ворошилова 4" cannot silently
	// become the area.
	if n := extract.BareNumber(text); n > 0 {
		if extract.HasAreaHint(text) || intent.PriceQuestion(text) || (mem.AskedArea && mem.AreaM2 <= 0) {
			mem.AreaM2 = float64(n)
			mem.AskedArea = false
		}
	}

	// avito gives no turn boundary between browsing and asking, so once
	// city and area are known we price proactively, once per pair
	priceForced := false
	if in.Platform == "avito" && mem.City != "" && mem.AreaM2 > 0 && !intent.PriceQuestion(text) {
		marker := fmt.Sprintf("%s|%g", mem.City, mem.AreaM2)
		if mem.LastAutoEstimate != marker {
			mem.LastAutoEstimate = marker
			priceForced = true
		}
	}

	if city := cities.Match(text); city != "" {
		mem.City = city
		mem.AskedCity = false
		mem.UnsupportedCityCandidate = ""
	} else if cand := extract.CityCandidate(text); cand != "" {
		// a bare word only counts as a city when it answers our question;
		// otherwise greetings and one-word replies would look like cities
		if extract.HasCityMarker(text) || mem.AskedCity {
			mem.UnsupportedCityCandidate = cand
		}
	}

	if intent.PhoneRefusal(text) {
		mem.NoPhone = true
	}
	if ph := extract.Phone(text); ph != "" {
		mem.Phone = ph
		mem.NoPhone = false
		mem.AskedPhone = false
	}
	addr := extract.Address(text)
	if addr != "" {
		mem.Address = addr
		mem.AskedAddress = false
	}
	vdate := extract.VisitDate(text)
	if vdate != "" {
		mem.VisitDay = vdate
		mem.AskedDate = false
	}
	vtime := extract.VisitTime(text)
	if vtime != "" {
		mem.VisitAt = vtime
		if !extract.IsCoarseTime(vtime) {
			mem.AskedTime = false
		}
	}

	// ---- early warning for the operator ----
	hotIntent := intent.BookingIntent(text) || intent.Affirmation(text)
	hotDiscount := intent.Discount(text) && mem.City != "" && mem.AreaM2 > 0
	if (hotIntent || mem.DetailsCount() >= 2 || hotDiscount) && !mem.HotNotified {
		mem.HotNotified = true
		out.hotAlerted = true
		out.alerts = append(out.alerts, hotAlertText(in.UserID, text, mem, in.Meta))
	}

	// ---- unsupported city ----
	if mem.UnsupportedCityCandidate != "" && mem.City == "" {
		out.reply = cityNotSupportedText(first, mem.UnsupportedCityCandidate)
		out.branch = "unsupported_city"
		markProcessed()
		return out
	}

	// ---- discounts ----
	if intent.Discount(text) {
		mem.MeasureOfferPending = true
		out.reply = discountsText(first, mem.City)
		out.branch = "discounts"
		out.promoImage = in.Platform == "tg"
		markProcessed()
		return out
	}

	// ---- intents ----
	// the pending marker keeps a price inquiry alive across the turns
	// that answer the city and area questions
	if intent.PriceQuestion(text) || priceForced {
		mem.PricePending = true
	}
	bookMeasure := intent.BookingIntent(text)
	infoMeasure := intent.MeasurementInfoQuestion(text)

	if intent.MeasurementDecline(text) || intent.CalcOnly(text) {
		mem.CalcOnly = true
		mem.AgreedMeasurement = false
	}
	priceQ := mem.PricePending || mem.CalcOnly

	// a pending offer plus any concrete follow-up is an agreement
	if mem.MeasureOfferPending && !mem.AgreedMeasurement {
		if intent.Affirmation(text) || bookMeasure || addr != "" || vdate != "" || vtime != "" {
			mem.AgreedMeasurement = true
			mem.MeasureOfferPending = false
			mem.CalcOnly = false
		}
	}
	if bookMeasure && !mem.CalcOnly {
		mem.AgreedMeasurement = true
	}
	// customers who volunteer visit details have implicitly agreed
	if mem.DetailsCount() >= 2 && !mem.CalcOnly {
		mem.AgreedMeasurement = true
	}
	// an agreement supersedes any half-finished estimate
	if mem.AgreedMeasurement {
		mem.PricePending = false
		priceQ = mem.CalcOnly
	}

	// ---- price path ----
	if priceQ {
		switch {
		case mem.City == "":
			again := mem.AskedCity
			mem.AskedCity = true
			out.reply = needCityText(first, again)
			out.branch = "need_city"
		case mem.AreaM2 <= 0:
			again := mem.AskedArea
			mem.AskedArea = true
			out.reply = needAreaText(first, again, mem.City)
			out.branch = "need_area"
		default:
			est := price.Calculate(mem.City, mem.AreaM2, mem.Extras)
			if est.Known {
				mem.PricePending = false
				mem.MeasureOfferPending = true
				mem.LastAutoEstimate = fmt.Sprintf("%s|%g", mem.City, mem.AreaM2)
				out.reply = estimateText(est.MinPrice, mem.City, mem.AreaM2, !mem.CalcOnly)
				out.branch = "estimate"
				// declined the visit but clearly ready to buy
				if mem.CalcOnly && !mem.HotNotified {
					mem.HotNotified = true
					out.hotAlerted = true
					out.alerts = append(out.alerts, hotAlertText(in.UserID, text, mem, in.Meta))
				}
			} else {
				again := mem.AskedArea
				mem.AskedArea = true
				out.reply = needAreaText(first, again, mem.City)
				out.branch = "need_area"
			}
		}
		markProcessed()
		return out
	}

	// ---- visit info ----
	if infoMeasure && !mem.AgreedMeasurement {
		if mem.City == "" {
			again := mem.AskedCity
			mem.AskedCity = true
			out.reply = needCityText(first, again)
			out.branch = "need_city"
		} else {
			mem.MeasureOfferPending = true
			out.reply = measureInfoText(first, mem.City)
			out.branch = "measure_info"
		}
		markProcessed()
		return out
	}

	// ---- lead collection ----
	if mem.AgreedMeasurement && !mem.LeadCreated {
		if reply := askNextLeadField(mem, first); reply != "" {
			out.reply = reply
			out.branch = "collect_field"
			markProcessed()
			return out
		}

		mem.LeadCreated = true
		lead := &leads.Lead{
			CreatedAt: now,
			Platform:  in.Platform,
			UserID:    in.UserID,
			Username:  in.Meta.Username,
			Name:      in.Meta.Name,
			Kind:      leads.KindMeasure,
			City:      mem.City,
			AreaM2:    mem.AreaM2,
			Extras:    mem.Extras,
			Address:   mem.Address,
			VisitDate: extract.ResolveRelativeDate(mem.VisitDay, now),
			VisitTime: mem.VisitAt,
			Phone:     mem.Phone,
			Meta:      metaMap(in.Meta),
		}
		out.lead = lead
		out.alerts = append(out.alerts, leadAlertText(lead))
		out.reply = leadConfirmationText(mem, lead.VisitDate)
		out.branch = "lead_created"
		out.allowPhoneEcho = true
		markProcessed()
		return out
	}

	// ---- first contact ----
	if first && mem.City == "" && !bookMeasure {
		out.reply = welcomeText(true)
		out.branch = "welcome"
		markProcessed()
		return out
	}

	// ---- free-form fallback ----
	out.needLLM = true
	out.branch = "llm"
	markProcessed()
	return out
}

// askNextLeadField asks for exactly one missing field per turn, in the
// fixed order city, address, date, time, phone. Returns "" when the
// lead is complete.
func askNextLeadField(mem *memory.Memory, first bool) string {
	if mem.City == "" {
		again := mem.AskedCity
		mem.AskedCity = true
		return needCityText(first, again)
	}

	intro := measureIntro(first, mem.MeasureIntroSent)
	mem.MeasureIntroSent = true

	if mem.Address == "" {
		again := mem.AskedAddress
		mem.AskedAddress = true
		return askAddressText(intro, again)
	}
	if mem.VisitDay == "" {
		again := mem.AskedDate
		mem.AskedDate = true
		return askDateText(intro, again)
	}
	if mem.VisitAt == "" || extract.IsCoarseTime(mem.VisitAt) {
		again := mem.AskedTime
		mem.AskedTime = true
		return askTimeText(intro, again)
	}
	if mem.Phone == "" {
		again := mem.AskedPhone
		mem.AskedPhone = true
		return askPhoneText(intro, again)
	}
	return ""
}

func metaMap(m Meta) map[string]string {
	out := map[string]string{}
	if m.Username != "" {
		out["username"] = m.Username
	}
	if m.Name != "" {
		out["name"] = m.Name
	}
	if m.ChatURL != "" {
		out["chat_url"] = m.ChatURL
	}
	if m.ItemURL != "" {
		out["item_url"] = m.ItemURL
	}
	if m.ItemTitle != "" {
		out["title"] = m.ItemTitle
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
