package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bz888/oblaka/internal/api"
)

const jsonContentType = "application/json; charset=utf-8"

// Handler relays the three API routes to the upstream backend.
type Handler struct {
	upstream Forwarder
	metrics  *Metrics
	log      zerolog.Logger
}

func NewHandler(upstream Forwarder, metrics *Metrics, log zerolog.Logger) *Handler {
	return &Handler{
		upstream: upstream,
		metrics:  metrics,
		log:      log,
	}
}

func (h *Handler) Health(c *gin.Context) {
	h.log.Debug().Msg("checking backend health")
	reply, err := h.forward(c.Request.Context(), http.MethodGet, "/health", nil)
	if err != nil {
		h.log.Error().Err(err).Msg("health check failed")
		c.JSON(probeFailure(labelHealth, err))
		return
	}
	c.Data(http.StatusOK, jsonContentType, reply.Body)
}

func (h *Handler) Models(c *gin.Context) {
	h.log.Debug().Msg("fetching model list")
	reply, err := h.forward(c.Request.Context(), http.MethodGet, "/models", nil)
	if err != nil {
		h.log.Error().Err(err).Msg("fetching models failed")
		c.JSON(probeFailure(labelModels, err))
		return
	}
	c.Data(http.StatusOK, jsonContentType, reply.Body)
}

func (h *Handler) Chat(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.log.Error().Err(err).Msg("reading chat request failed")
		c.JSON(chatFailure(err))
		return
	}

	h.log.Info().Int("bytes", len(body)).Msg("forwarding chat request")
	reply, err := h.forward(c.Request.Context(), http.MethodPost, "/chat", body)
	if err != nil {
		status, payload := chatFailure(err)
		h.log.Error().Err(err).Int("status", status).Str("details", payload.Details).Msg("chat request failed")
		c.JSON(status, payload)
		return
	}

	h.log.Info().Msg("chat response received from backend")
	c.Data(http.StatusOK, jsonContentType, reply.Body)
}

func (h *Handler) forward(ctx context.Context, method, path string, body []byte) (*Reply, error) {
	start := time.Now()
	reply, err := h.upstream.Forward(ctx, method, path, body)
	if h.metrics != nil {
		h.metrics.ObserveUpstream(path, outcome(err), time.Since(start))
	}
	return reply, err
}

func outcome(err error) string {
	var upErr *UpstreamError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &upErr):
		return "rejected"
	case api.IsUnreachable(err):
		return "unreachable"
	default:
		return "error"
	}
}
