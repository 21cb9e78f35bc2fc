// Package memory holds per-conversation durable state: qualification
// facts, funnel flags and a bounded rolling dialog log. Stores keep one
// record per (platform, userId) key; nothing else ever shares a record.
package memory

import (
	"strings"
	"time"
)

const (
	// DialogCap bounds the rolling dialog log kept in memory.
	DialogCap = 30
	// HydrateTurns is how many stored turns seed a cold history.
	HydrateTurns = 14
)

// Turn is one stored dialog line.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Memory is the full durable record for one conversation.
type Memory struct {
	Started bool `json:"_started,omitempty"`

	City     string   `json:"city,omitempty"`
	AreaM2   float64  `json:"area_m2,omitempty"`
	Extras   []string `json:"extras,omitempty"`
	Address  string   `json:"address,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	NoPhone  bool     `json:"no_phone,omitempty"`
	VisitDay string   `json:"visit_date,omitempty"`
	VisitAt  string   `json:"visit_time,omitempty"`

	AskedCity    bool `json:"asked_city,omitempty"`
	AskedArea    bool `json:"asked_area,omitempty"`
	AskedAddress bool `json:"asked_address,omitempty"`
	AskedDate    bool `json:"asked_date,omitempty"`
	AskedTime    bool `json:"asked_time,omitempty"`
	AskedPhone   bool `json:"asked_phone,omitempty"`

	PricePending        bool `json:"price_pending,omitempty"`
	MeasureOfferPending bool `json:"measure_offer_pending,omitempty"`
	AgreedMeasurement   bool `json:"agreed_measurement,omitempty"`
	CalcOnly            bool `json:"calc_only,omitempty"`
	MeasureIntroSent    bool `json:"measure_intro_sent,omitempty"`
	LeadCreated         bool `json:"lead_created,omitempty"`
	HotNotified         bool `json:"hot_notified,omitempty"`

	UnsupportedCityCandidate string `json:"unsupported_city_candidate,omitempty"`
	LastAutoEstimate         string `json:"last_auto_estimate,omitempty"`
	LastProcessedMessageID   string `json:"last_processed_message_id,omitempty"`

	// ManualUntil is a unix timestamp; while in the future the bot stays
	// silent and a human owns the conversation.
	ManualUntil int64 `json:"manual_until,omitempty"`

	Dialog []Turn `json:"_dialog,omitempty"`
}

// PushTurn appends a dialog line and trims the log to DialogCap.
func (m *Memory) PushTurn(role, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	m.Dialog = append(m.Dialog, Turn{Role: role, Text: text})
	if len(m.Dialog) > DialogCap {
		m.Dialog = m.Dialog[len(m.Dialog)-DialogCap:]
	}
}

// RecentTurns returns up to n most recent dialog lines, oldest first.
func (m *Memory) RecentTurns(n int) []Turn {
	if len(m.Dialog) <= n {
		return m.Dialog
	}
	return m.Dialog[len(m.Dialog)-n:]
}

// InManualWindow reports whether automated replies are suppressed.
func (m *Memory) InManualWindow(now time.Time) bool {
	return m.ManualUntil > 0 && now.Unix() < m.ManualUntil
}

// DetailsCount counts the visit fields already collected. Two or more
// alongside intent make the conversation hot.
func (m *Memory) DetailsCount() int {
	n := 0
	if m.Address != "" {
		n++
	}
	if m.VisitDay != "" {
		n++
	}
	if m.VisitAt != "" {
		n++
	}
	if m.Phone != "" {
		n++
	}
	return n
}

// Key builds the canonical conversation key for a platform and user.
func Key(platform, userID string) string {
	return platform + ":" + userID
}
