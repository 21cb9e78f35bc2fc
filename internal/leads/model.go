package leads

import (
	"strings"
	"time"
)

// Lead is the immutable record produced when a measurement request is
// finalized. Meta carries channel-specific context (chat url, item
// title) untouched.
type Lead struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"ts"`
	Platform  string            `json:"platform"`
	UserID    string            `json:"user_id"`
	Username  string            `json:"username"`
	Name      string            `json:"name"`
	Kind      string            `json:"lead_kind"`
	City      string            `json:"city"`
	AreaM2    float64           `json:"area_m2"`
	Extras    []string          `json:"extras"`
	Address   string            `json:"address"`
	VisitDate string            `json:"visit_date"`
	VisitTime string            `json:"visit_time"`
	Phone     string            `json:"phone"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// KindMeasure is the only lead kind the funnel produces today.
const KindMeasure = "measure"

// Validate checks the fields the funnel must have collected before
// finalizing.
func (l *Lead) Validate() error {
	if strings.TrimSpace(l.Platform) == "" || strings.TrimSpace(l.UserID) == "" {
		return ErrMissingIdentity
	}
	if strings.TrimSpace(l.City) == "" {
		return ErrMissingCity
	}
	if strings.TrimSpace(l.Phone) == "" {
		return ErrMissingContact
	}
	return nil
}
