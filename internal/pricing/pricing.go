// Package pricing computes ballpark estimates from a JSON rules file.
// Rules are grouped per city with an optional top-level extras table
// shared by every city.
package pricing

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ErrNoArea is reported in Estimate.Details when the area is unknown.
const noAreaDetails = "Площадь не указана"

const (
	fallbackBasePerSqm = 600.0
	minPriceFactor     = 0.85
)

// Estimate is a lower-bound price suggestion, never a quote.
type Estimate struct {
	MinPrice int
	Currency string
	Details  string
	Known    bool
}

// extraRule accepts both rule encodings: a bare number means a fixed
// surcharge, an object carries {"type": "per_sqm"|"fixed", "value": N}.
type extraRule struct {
	Type  string
	Value float64
}

func (r *extraRule) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		r.Type = "fixed"
		r.Value = num
		return nil
	}
	var obj struct {
		Type  string  `json:"type"`
		Value float64 `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("pricing: decode extra rule: %w", err)
	}
	r.Type = obj.Type
	r.Value = obj.Value
	return nil
}

type cityRules struct {
	BasePricePerSqm float64              `json:"base_price_per_sqm"`
	Extras          map[string]extraRule `json:"extras"`
}

type rules struct {
	Cities map[string]cityRules `json:"cities"`
	Extras map[string]extraRule `json:"extras"`
}

// Engine holds the parsed rules for the lifetime of the process.
type Engine struct {
	rules rules
}

// NewEngine loads the rules file. A missing file is a startup error.
func NewEngine(path string) (*Engine, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pricing: read rules %s: %w", path, err)
	}
	return NewEngineFromJSON(raw)
}

// NewEngineFromJSON builds an engine from in-memory rules.
func NewEngineFromJSON(raw []byte) (*Engine, error) {
	var r rules
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("pricing: parse rules: %w", err)
	}
	return &Engine{rules: r}, nil
}

// Calculate produces an estimate for the given city, area and extras.
// Unknown cities fall back to the "default" city entry, then to a flat
// base rate, so an estimate is always produced once the area is known.
func (e *Engine) Calculate(city string, areaM2 float64, extras []string) Estimate {
	if areaM2 <= 0 {
		return Estimate{Currency: "RUB", Details: noAreaDetails}
	}

	cityObj, ok := e.rules.Cities[city]
	if !ok {
		cityObj = e.rules.Cities["default"]
	}
	basePrice := cityObj.BasePricePerSqm
	if basePrice <= 0 {
		basePrice = fallbackBasePerSqm
	}

	total := basePrice * areaM2
	breakdown := []string{fmt.Sprintf("База: %.0f ₽/м² × %s м²", basePrice, formatArea(areaM2))}

	for _, name := range extras {
		rule, ok := cityObj.Extras[name]
		if !ok {
			rule, ok = e.rules.Extras[name]
		}
		if !ok {
			continue
		}
		switch rule.Type {
		case "per_sqm":
			total += rule.Value * areaM2
			breakdown = append(breakdown, fmt.Sprintf("%s: %.0f ₽/м² × %s м²", name, rule.Value, formatArea(areaM2)))
		case "fixed":
			total += rule.Value
			breakdown = append(breakdown, fmt.Sprintf("%s: %.0f ₽ фикс.", name, rule.Value))
		}
	}

	return Estimate{
		MinPrice: int(total * minPriceFactor),
		Currency: "RUB",
		Details:  strings.Join(breakdown, " | "),
		Known:    true,
	}
}

// formatArea renders the area the short way: 20 not 20.0, 17.5 kept.
func formatArea(a float64) string {
	s := fmt.Sprintf("%g", a)
	return s
}
