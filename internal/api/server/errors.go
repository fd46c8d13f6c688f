package server

import (
	"errors"
	"net/http"

	"github.com/bz888/oblaka/internal/api"
)

const (
	labelHealth        = "failed to connect to backend"
	labelModels        = "failed to fetch models"
	labelChat          = "request processing failed"
	labelUnavailable   = "backend unavailable"
	detailsUnavailable = "could not connect to the AI service"
	labelRequest       = "request failed"
	labelNotFound      = "endpoint not found"
	labelInternal      = "internal server error"
)

// probeFailure maps any health or models failure onto a 500.
func probeFailure(label string, err error) (int, api.ErrorBody) {
	return http.StatusInternalServerError, api.ErrorBody{Error: label, Details: err.Error()}
}

// chatFailure maps a chat forwarding failure; the first matching case wins.
func chatFailure(err error) (int, api.ErrorBody) {
	var upErr *UpstreamError
	switch {
	case errors.As(err, &upErr):
		return upErr.StatusCode, api.ErrorBody{Error: labelChat, Details: upErr.Detail()}
	case api.IsUnreachable(err):
		return http.StatusServiceUnavailable, api.ErrorBody{Error: labelUnavailable, Details: detailsUnavailable}
	default:
		return http.StatusInternalServerError, api.ErrorBody{Error: labelRequest, Details: err.Error()}
	}
}
