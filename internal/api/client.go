package api

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Client talks to the proxy on behalf of the terminal UI.
type Client struct {
	http         *resty.Client
	chatTimeout  time.Duration
	probeTimeout time.Duration
	log          zerolog.Logger
}

// NewClient creates a Resty-backed proxy client. Every call is bounded:
// chat by chatTimeout, health and models by probeTimeout.
func NewClient(baseURL string, chatTimeout, probeTimeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		chatTimeout:  chatTimeout,
		probeTimeout: probeTimeout,
		log:          log,
	}
}

// Health calls GET /api/health.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	var health HealthStatus
	var errBody ErrorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&health).
		SetError(&errBody).
		Get("/api/health")
	if err != nil {
		c.log.Error().Err(err).Msg("health request failed")
		return nil, fmt.Errorf("health request: %w", err)
	}
	if resp.IsError() {
		c.log.Warn().Int("status", resp.StatusCode()).Msg("health check rejected")
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: errBody}
	}
	return &health, nil
}

// ListModels calls GET /api/models.
func (c *Client) ListModels(ctx context.Context) ([]ModelDescriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	var models ModelsResponse
	var errBody ErrorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&models).
		SetError(&errBody).
		Get("/api/models")
	if err != nil {
		c.log.Error().Err(err).Msg("models request failed")
		return nil, fmt.Errorf("models request: %w", err)
	}
	if resp.IsError() {
		c.log.Warn().Int("status", resp.StatusCode()).Msg("models request rejected")
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: errBody}
	}
	if models.Models == nil {
		return nil, fmt.Errorf("models response has no model list")
	}
	return models.Models, nil
}

// Chat calls POST /api/chat.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.chatTimeout)
	defer cancel()

	c.log.Info().Str("model", req.Model).Float64("temperature", req.Temperature).Int("length", len(req.Message)).Msg("sending chat request")

	var chat ChatResponse
	var errBody ErrorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&chat).
		SetError(&errBody).
		Post("/api/chat")
	if err != nil {
		c.log.Error().Err(err).Msg("chat request failed")
		return nil, fmt.Errorf("chat request: %w", err)
	}
	if resp.IsError() {
		apiErr := &APIError{StatusCode: resp.StatusCode(), Body: errBody}
		c.log.Error().Int("status", resp.StatusCode()).Str("reason", apiErr.Error()).Msg("chat request rejected")
		return nil, apiErr
	}
	c.log.Info().Str("model_used", chat.ModelUsed).Msg("chat response received")
	return &chat, nil
}
