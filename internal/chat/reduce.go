package chat

import (
	"slices"
	"strings"

	"github.com/bz888/oblaka/internal/api"
)

const (
	placeholderNoModels   = "No models available"
	placeholderLoadFailed = "Failed to load models"
)

// Reduce applies ev to s and returns the next state plus an optional
// command. It never performs I/O.
func Reduce(s State, ev Event) (State, Command) {
	switch ev := ev.(type) {
	case InputChanged:
		s.Input = ev.Text
		return s, nil

	case ExampleSelected:
		s.Input = ev.Question
		return send(s, SendRequested{At: ev.At})

	case SendRequested:
		return send(s, ev)

	case ChatSucceeded:
		entry := Entry{
			Role:  RoleAssistant,
			Text:  ev.Response.Response,
			Time:  ev.At,
			Model: ev.Response.ModelUsed,
		}
		if ev.Response.TokensUsed != nil && *ev.Response.TokensUsed > 0 {
			entry.Tokens = *ev.Response.TokensUsed
			s.TokenCount += entry.Tokens
		}
		s.Transcript = appendEntry(s.Transcript, entry)
		s.Loading = false
		if s.Prefs.SoundEnabled {
			return s, Notify{}
		}
		return s, nil

	case ChatFailed:
		s.Transcript = appendEntry(s.Transcript, Entry{
			Role: RoleError,
			Text: DescribeError(ev.Err),
			Time: ev.At,
		})
		s.Loading = false
		return s, nil

	case ClearRequested:
		s.ConfirmingClear = true
		return s, nil

	case ClearAnswered:
		s.ConfirmingClear = false
		if ev.Confirmed {
			s.Transcript = nil
			s.MessageCount = 0
			s.TokenCount = 0
		}
		return s, nil

	case HealthChecked:
		s.Status = healthStatus(ev.Health, ev.Err)
		return s, nil

	case ModelsLoaded:
		s.Models, s.SelectedModel = modelOptions(ev.Models, ev.Err, s.SelectedModel)
		return s, nil

	case ModelSelected:
		for _, m := range s.Models {
			if m.ID == ev.ID && !m.Disabled {
				s.SelectedModel = m.ID
			}
		}
		return s, nil

	case PreferencesChanged:
		s.Prefs = ev.Prefs
		return s, SavePreferences{Prefs: ev.Prefs}
	}
	return s, nil
}

// send enforces single-flight: nothing happens while a request is pending or
// the trimmed input is empty.
func send(s State, ev SendRequested) (State, Command) {
	message := strings.TrimSpace(s.Input)
	if message == "" || s.Loading {
		return s, nil
	}

	s.Transcript = appendEntry(s.Transcript, Entry{Role: RoleUser, Text: message, Time: ev.At})
	s.MessageCount++
	s.Input = ""
	s.Loading = true

	return s, IssueChat{Request: api.ChatRequest{
		Message:     message,
		Model:       s.SelectedModel,
		Temperature: s.Temperature(),
		MaxTokens:   MaxTokens,
	}}
}

// appendEntry never writes into a backing array shared with a previous state.
func appendEntry(transcript []Entry, e Entry) []Entry {
	return append(slices.Clip(transcript), e)
}

func modelOptions(models []api.ModelDescriptor, err error, selected string) ([]ModelOption, string) {
	if err != nil {
		return []ModelOption{{Name: placeholderLoadFailed, Disabled: true}}, ""
	}
	if len(models) == 0 {
		return []ModelOption{{Name: placeholderNoModels, Disabled: true}}, ""
	}

	options := make([]ModelOption, 0, len(models))
	keep := false
	first := ""
	for _, m := range models {
		options = append(options, ModelOption{ID: m.ID, Name: m.Name, Disabled: !m.Available})
		if !m.Available {
			continue
		}
		if first == "" {
			first = m.ID
		}
		if m.ID == selected {
			keep = true
		}
	}
	if keep {
		return options, selected
	}
	return options, first
}

var providerNames = map[string]string{
	"openai": "OpenAI",
	"gemini": "Gemini",
	"ollama": "Ollama",
}

func healthStatus(h *api.HealthStatus, err error) Status {
	if err != nil {
		return Status{Indicator: IndicatorError, Text: "Connection error: " + err.Error()}
	}
	if h == nil || !h.OK() {
		return Status{Indicator: IndicatorError, Text: "Server error"}
	}

	parts := make([]string, 0, len(h.Providers))
	for _, name := range h.ProviderNames() {
		mark := "✗"
		if h.Providers[name] {
			mark = "✓"
		}
		parts = append(parts, displayName(name)+": "+mark)
	}
	if len(parts) == 0 {
		return Status{Indicator: IndicatorConnected, Text: "Connected"}
	}
	return Status{Indicator: IndicatorConnected, Text: "Connected (" + strings.Join(parts, ", ") + ")"}
}

func displayName(provider string) string {
	if name, ok := providerNames[provider]; ok {
		return name
	}
	if provider == "" {
		return provider
	}
	return strings.ToUpper(provider[:1]) + provider[1:]
}
