// Package client holds the chat providers behind the reference backend.
package client

import (
	"context"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("provider returned an empty response")

// Info describes a provider to the model list and the error messages.
type Info struct {
	ID          string
	Label       string
	Name        string
	Description string
	// MaxTokens caps the completion length accepted for this provider.
	MaxTokens int
}

// ChatRequest is a single-turn prompt with limits already applied.
type ChatRequest struct {
	Message     string
	MaxTokens   int
	Temperature float64
}

// ChatResult is one completion.
type ChatResult struct {
	Text       string
	ModelUsed  string
	TokensUsed *int
}

// Provider is a chat completion backend.
type Provider interface {
	Info() Info
	Available() bool
	Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error)
}
