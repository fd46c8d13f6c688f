// Package prefs persists the client preference bundle under a single
// storage key.
package prefs

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// StorageKey is the key the bundle is stored under.
const StorageKey = "oblakaSettings"

// Preferences is the bundle saved on every change.
type Preferences struct {
	AutoScroll   bool   `json:"autoScroll"`
	SoundEnabled bool   `json:"soundEnabled"`
	Temperature  string `json:"temperature,omitempty"`
}

// Defaults returns the bundle used when nothing is stored.
func Defaults() Preferences {
	return Preferences{AutoScroll: true, SoundEnabled: false}
}

// stored mirrors Preferences with optional fields so absent keys fall back
// to the defaults individually.
type stored struct {
	AutoScroll   *bool           `json:"autoScroll"`
	SoundEnabled *bool           `json:"soundEnabled"`
	Temperature  json.RawMessage `json:"temperature"`
}

// Load reads the bundle. A missing key yields Defaults; a corrupt bundle
// yields Defaults together with the decode error.
func Load(s Storage) (Preferences, error) {
	prefs := Defaults()

	raw, ok, err := s.Get(StorageKey)
	if err != nil {
		return prefs, fmt.Errorf("read preferences: %w", err)
	}
	if !ok {
		return prefs, nil
	}

	var bundle stored
	if err := json.Unmarshal([]byte(raw), &bundle); err != nil {
		return prefs, fmt.Errorf("decode preferences: %w", err)
	}

	if bundle.AutoScroll != nil {
		prefs.AutoScroll = *bundle.AutoScroll
	}
	if bundle.SoundEnabled != nil {
		prefs.SoundEnabled = *bundle.SoundEnabled
	}
	prefs.Temperature = temperatureString(bundle.Temperature)
	return prefs, nil
}

// Save overwrites the stored bundle wholesale.
func Save(s Storage, p Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := s.Set(StorageKey, string(data)); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}

// temperatureString accepts the value as a JSON string or number.
func temperatureString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}
