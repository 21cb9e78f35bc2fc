// Package intent holds the boolean classifiers over raw inbound text.
// Each predicate is independent of conversation memory. Negative signals
// (declines, refusals, escalation) take precedence over positive ones:
// booking and info predicates return false whenever the same message also
// declines the visit.
package intent

import (
	"regexp"
	"strings"
)

var (
	discountRE       = regexp.MustCompile(`(?i)(скидк|акци|подар|промокод|купон|бонус)`)
	measureDeclineRE = regexp.MustCompile(`(?i)(без\s+замера|не\s+нужен\s+замер|не\s+надо\s+замер|не\s+выезжайте|не\s+приезжайте)`)
	calcOnlyRE       = regexp.MustCompile(`(?i)(просто\s+стоимость|только\s+стоимость|только\s+цен[ау]|просто\s+цен[ау])`)
	affirmRE         = regexp.MustCompile(`(?i)(^|\s)(да|ок|хорошо|давайте|согласен|согласна|подтверждаю|записывайте)([\s,.!?]|$)`)
	negRE            = regexp.MustCompile(`(?i)(^|\s)(нет|не надо|не нужно|отмена|передумал|передумала)([\s,.!?]|$)`)
	negWordRE        = regexp.MustCompile(`(?i)(^|\s)не(\s|$)`)
	measureBookRE    = regexp.MustCompile(`(?i)(запиш|замер|приех|выех|когда\s+можете|когда\s+приедете)`)
	measureInfoRE    = regexp.MustCompile(`(?i)(как\s+проходит\s+замер|про\s+замер|бесплатн[а-яё]*\s+замер|сколько\s+стоит\s+замер)`)
	phoneRefusalRE   = regexp.MustCompile(`(?i)(не\s+дам\s+телефон|без\s+телефон|телефон\s+не\s+дам|не\s+оставлю\s+телефон)`)
)

// priceTriggers are scanned as plain substrings of the lowered text.
var priceTriggers = []string{
	"сколько стоит", "стоимость", "цена", "по чем", "почем",
	"просчитать", "рассчитать", "посчитать", "посчитайте",
	"примерно", "ориентир", "сколько выйдет", "предварительно",
}

// ceilingKeywords mark a message as on-topic for stretch ceilings even
// when the listing title gives no hint.
var ceilingKeywords = []string{
	"потол", "натяж", "светиль", "люстр", "профил",
	"тенев", "карниз", "замер", "м2", "м²", "кв",
}

// humanTriggers request a handoff to a live operator.
var humanTriggers = []string{
	"оператор", "менеджер", "живой человек", "человек", "ассистент",
	"позови", "позовите", "соедини", "соедините", "не бот",
	"хочу человека", "переключи на человека",
}

// Discount reports a mention of discounts, promotions or gifts.
func Discount(text string) bool {
	return discountRE.MatchString(text)
}

// MeasurementDecline reports an explicit refusal of an on-site visit.
func MeasurementDecline(text string) bool {
	return measureDeclineRE.MatchString(text)
}

// CalcOnly reports a request for a price estimate without a visit.
func CalcOnly(text string) bool {
	return calcOnlyRE.MatchString(text)
}

// Affirmation reports agreement. Any negation in the message defeats it,
// so "нет" and "не надо, спасибо" can never affirm.
func Affirmation(text string) bool {
	low := strings.ToLower(text)
	return affirmRE.MatchString(low) && !negWordRE.MatchString(low) && !negRE.MatchString(low)
}

// Negation reports an explicit refusal or cancellation.
func Negation(text string) bool {
	return negRE.MatchString(text)
}

// PriceQuestion reports that the customer is asking about cost.
func PriceQuestion(text string) bool {
	low := strings.ToLower(text)
	for _, trigger := range priceTriggers {
		if strings.Contains(low, trigger) {
			return true
		}
	}
	return false
}

// BookingIntent reports a wish to schedule the visit. A decline in the
// same message overrides it.
func BookingIntent(text string) bool {
	if MeasurementDecline(text) {
		return false
	}
	return measureBookRE.MatchString(text)
}

// MeasurementInfoQuestion reports a question about how the visit works.
// A decline in the same message overrides it.
func MeasurementInfoQuestion(text string) bool {
	if MeasurementDecline(text) {
		return false
	}
	return measureInfoRE.MatchString(text)
}

// PhoneRefusal reports that the customer refuses to share a phone number.
func PhoneRefusal(text string) bool {
	return phoneRefusalRE.MatchString(text)
}

// CeilingTopic reports that the message touches stretch-ceiling work.
func CeilingTopic(text string) bool {
	low := strings.ToLower(text)
	for _, kw := range ceilingKeywords {
		if strings.Contains(low, kw) {
			return true
		}
	}
	return false
}

// HumanEscalation reports a request to talk to a live operator.
func HumanEscalation(text string) bool {
	low := strings.ToLower(text)
	for _, trigger := range humanTriggers {
		if strings.Contains(low, trigger) {
			return true
		}
	}
	return false
}
