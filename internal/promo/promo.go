// Package promo serves the current promotion text from a JSON file.
// Two file formats are accepted: the current one with a single text and
// an active switch, and the legacy per-city map.
package promo

import (
	"encoding/json"
	"fmt"
	"os"
)

// Manager answers "what promo applies for this city right now".
type Manager struct {
	data map[string]json.RawMessage
}

// NewManager loads the promotions file. A missing file means no promos
// rather than a startup failure.
func NewManager(path string) (*Manager, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Manager{data: map[string]json.RawMessage{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("promo: read %s: %w", path, err)
	}
	return NewManagerFromJSON(raw)
}

// NewManagerFromJSON builds a manager from in-memory promotion data.
func NewManagerFromJSON(raw []byte) (*Manager, error) {
	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("promo: parse promotions: %w", err)
	}
	return &Manager{data: data}, nil
}

// Promo returns the promo text for a city, or "" when nothing applies.
func (m *Manager) Promo(city string) string {
	// current format: {"active": bool, "text": "..."}
	if rawText, ok := m.data["text"]; ok {
		if rawActive, ok := m.data["active"]; ok {
			var active bool
			if err := json.Unmarshal(rawActive, &active); err == nil && !active {
				return ""
			}
		}
		var text string
		if err := json.Unmarshal(rawText, &text); err != nil {
			return ""
		}
		return text
	}

	// legacy format: {"cities": {"Ижевск": "...", "default": "..."}}
	if rawCities, ok := m.data["cities"]; ok {
		var cities map[string]string
		if err := json.Unmarshal(rawCities, &cities); err == nil {
			if s := cities[city]; s != "" {
				return s
			}
			return cities["default"]
		}
	}

	// legacy flat format: {"Ижевск": "...", "default": "..."}
	if s := m.str(city); s != "" {
		return s
	}
	return m.str("default")
}

func (m *Manager) str(key string) string {
	raw, ok := m.data[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
