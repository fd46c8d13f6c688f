// Package chat holds the client session state and the pure transition
// function that drives it. Rendering lives elsewhere.
package chat

import (
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/bz888/oblaka/internal/prefs"
)

const (
	// MaxTokens is the ceiling sent with every chat request.
	MaxTokens = 1000

	DefaultTemperature = 0.7
	MinTemperature     = 0.0
	MaxTemperature     = 2.0
)

// ExampleQuestions are offered on the welcome screen.
var ExampleQuestions = []string{
	"Tell me about the latest news in AI",
	"Help me outline a presentation",
	"Explain a complex topic in simple words",
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleError     Role = "error"
)

// Entry is one transcript line. Entries are never mutated once appended.
type Entry struct {
	Role   Role
	Text   string
	Time   time.Time
	Model  string
	Tokens int
}

type Indicator string

const (
	IndicatorChecking  Indicator = "checking"
	IndicatorConnected Indicator = "connected"
	IndicatorError     Indicator = "error"
)

// Status is the connection indicator; each health result replaces it.
type Status struct {
	Indicator Indicator
	Text      string
}

// ModelOption is one entry of the model selector.
type ModelOption struct {
	ID       string
	Name     string
	Disabled bool
}

// State is the whole client session.
type State struct {
	Transcript      []Entry
	MessageCount    int
	TokenCount      int
	Loading         bool
	ConfirmingClear bool
	Input           string
	Models          []ModelOption
	SelectedModel   string
	Prefs           prefs.Preferences
	Status          Status
}

// NewState returns the initial session for the given preferences.
func NewState(p prefs.Preferences) State {
	return State{
		Prefs:  p,
		Status: Status{Indicator: IndicatorChecking, Text: "Checking connection..."},
	}
}

// Welcome reports whether the transcript shows the welcome screen.
func (s State) Welcome() bool {
	return len(s.Transcript) == 0
}

// CanSend reports whether the send control is enabled.
func (s State) CanSend() bool {
	return !s.Loading
}

// CharCount is the length of the pending input in characters.
func (s State) CharCount() int {
	return utf8.RuneCountInString(s.Input)
}

// Temperature parses the stored preference, clamped to the accepted range.
func (s State) Temperature() float64 {
	return ParseTemperature(s.Prefs.Temperature)
}

// ParseTemperature parses raw and clamps it to [MinTemperature, MaxTemperature].
// Empty or invalid input yields DefaultTemperature.
func ParseTemperature(raw string) float64 {
	if raw == "" {
		return DefaultTemperature
	}
	t, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return DefaultTemperature
	}
	switch {
	case t < MinTemperature:
		return MinTemperature
	case t > MaxTemperature:
		return MaxTemperature
	}
	return t
}
