package api

import (
	"encoding/json"
	"sort"
	"strings"
)

// ChatRequest is sent by the client to /api/chat.
type ChatRequest struct {
	Message     string  `json:"message"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// ChatResponse is the upstream reply relayed by the proxy.
type ChatResponse struct {
	Response   string `json:"response"`
	ModelUsed  string `json:"model_used"`
	TokensUsed *int   `json:"tokens_used,omitempty"`
}

// ModelDescriptor describes one selectable model.
type ModelDescriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Available   bool   `json:"available"`
}

// ModelsResponse wraps the model list.
type ModelsResponse struct {
	Models []ModelDescriptor `json:"models"`
}

// ErrorBody is the uniform error payload. Detail carries upstream
// validation-style errors that use a single field.
type ErrorBody struct {
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

const availableSuffix = "_available"

// HealthStatus is the health payload. Every "<provider>_available" flag
// lands in Providers.
type HealthStatus struct {
	Status    string          `json:"status"`
	Providers map[string]bool `json:"-"`
}

func (h *HealthStatus) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	h.Status = ""
	h.Providers = make(map[string]bool)
	if status, ok := raw["status"]; ok {
		if err := json.Unmarshal(status, &h.Status); err != nil {
			return err
		}
	}
	for key, value := range raw {
		if !strings.HasSuffix(key, availableSuffix) {
			continue
		}
		var available bool
		if err := json.Unmarshal(value, &available); err != nil {
			continue
		}
		h.Providers[strings.TrimSuffix(key, availableSuffix)] = available
	}
	return nil
}

func (h HealthStatus) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(h.Providers)+1)
	out["status"] = h.Status
	for name, available := range h.Providers {
		out[name+availableSuffix] = available
	}
	return json.Marshal(out)
}

// OK reports whether the backend declared itself healthy.
func (h HealthStatus) OK() bool {
	return h.Status == "ok"
}

// ProviderNames returns the provider keys in a stable order.
func (h HealthStatus) ProviderNames() []string {
	names := make([]string, 0, len(h.Providers))
	for name := range h.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
