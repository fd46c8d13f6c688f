package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Reply is a raw upstream answer.
type Reply struct {
	StatusCode int
	Body       []byte
}

// Forwarder sends exactly one request upstream.
type Forwarder interface {
	Forward(ctx context.Context, method, path string, body []byte) (*Reply, error)
}

// UpstreamError is returned when the upstream answered with a non-2xx status.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded with status %d", e.StatusCode)
}

// Detail extracts the most specific message from the upstream error body:
// "detail", then "details", then "error" as a string or as {"message": ...}.
func (e *UpstreamError) Detail() string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return e.Error()
	}

	for _, key := range []string{"detail", "details", "error"} {
		raw, ok := body[key]
		if !ok {
			continue
		}
		if msg := rawMessage(raw); msg != "" {
			return msg
		}
	}
	return e.Error()
}

func rawMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil && nested.Message != "" {
		return nested.Message
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	return trimmed
}

// Upstream forwards requests to the configured backend.
type Upstream struct {
	http *resty.Client
}

// NewUpstream creates a Resty-backed forwarder. Retries stay disabled so that
// every inbound call maps to exactly one outbound call.
func NewUpstream(baseURL string, timeout time.Duration) *Upstream {
	return &Upstream{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json").
			SetTimeout(timeout).
			SetRetryCount(0),
	}
}

// Forward implements Forwarder.
func (u *Upstream) Forward(ctx context.Context, method, path string, body []byte) (*Reply, error) {
	request := u.http.R().SetContext(ctx)
	if body != nil {
		request.SetBody(body)
	}

	resp, err := request.Execute(method, path)
	if err != nil {
		return nil, err
	}

	reply := &Reply{StatusCode: resp.StatusCode(), Body: resp.Body()}
	if resp.IsError() || reply.StatusCode < http.StatusOK || reply.StatusCode >= http.StatusMultipleChoices {
		return reply, &UpstreamError{StatusCode: reply.StatusCode, Body: reply.Body}
	}
	return reply, nil
}
