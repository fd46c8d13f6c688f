// Package backend is the reference upstream: it answers the health, models
// and chat contract the proxy relays, backed by the configured providers.
package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bz888/oblaka/internal/api"
	"github.com/bz888/oblaka/internal/backend/client"
)

const (
	version      = "1.0.0"
	defaultModel = "gemini"
)

type detailBody struct {
	Detail string `json:"detail"`
}

// chatRequest keeps the limits optional so absent values get defaults.
type chatRequest struct {
	Message     *string  `json:"message"`
	Model       string   `json:"model"`
	MaxTokens   *int     `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
}

// ModelLister is implemented by providers that can enumerate local models.
type ModelLister interface {
	GetModels(ctx context.Context) ([]client.OllamaModel, error)
}

type Handler struct {
	providers []client.Provider
	debug     map[string]any
	log       zerolog.Logger
}

// NewHandler serves providers in the given order. debug is merged into the
// /debug payload.
func NewHandler(providers []client.Provider, debug map[string]any, log zerolog.Logger) *Handler {
	return &Handler{
		providers: providers,
		debug:     debug,
		log:       log,
	}
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "Welcome to Oblaka AI!",
		"version":     version,
		"description": "AI service with OpenAI, Gemini and Ollama support",
		"status":      "running",
	})
}

func (h *Handler) Health(c *gin.Context) {
	health := api.HealthStatus{Status: "ok", Providers: make(map[string]bool, len(h.providers))}
	for _, p := range h.providers {
		health.Providers[p.Info().ID] = p.Available()
	}
	h.log.Info().Interface("providers", health.Providers).Msg("health check")
	c.JSON(http.StatusOK, health)
}

func (h *Handler) Models(c *gin.Context) {
	models := make([]api.ModelDescriptor, 0, len(h.providers))
	for _, p := range h.providers {
		if !p.Available() {
			continue
		}
		info := p.Info()
		models = append(models, api.ModelDescriptor{
			ID:          info.ID,
			Name:        info.Name,
			Description: info.Description,
			Available:   true,
		})
	}
	h.log.Info().Int("count", len(models)).Msg("returning available models")
	c.JSON(http.StatusOK, api.ModelsResponse{Models: models})
}

func (h *Handler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, detailBody{Detail: "invalid request body: " + err.Error()})
		return
	}
	if req.Message == nil {
		c.JSON(http.StatusUnprocessableEntity, detailBody{Detail: "field required: message"})
		return
	}
	if req.Model == "" {
		req.Model = defaultModel
	}

	h.log.Info().Str("model", req.Model).Int("length", len(*req.Message)).Msg("chat request received")

	provider := h.provider(req.Model)
	if provider == nil {
		h.log.Warn().Str("model", req.Model).Msg("unsupported model")
		c.JSON(http.StatusBadRequest, detailBody{Detail: "unsupported model"})
		return
	}
	info := provider.Info()
	if !provider.Available() {
		h.log.Warn().Str("model", req.Model).Msg("provider unavailable")
		c.JSON(http.StatusServiceUnavailable, detailBody{Detail: info.Label + " API unavailable"})
		return
	}

	start := time.Now()
	result, err := provider.Chat(c.Request.Context(), &client.ChatRequest{
		Message:     *req.Message,
		MaxTokens:   clampTokens(req.MaxTokens, info.MaxTokens),
		Temperature: clampTemperature(req.Temperature),
	})
	if err != nil {
		h.log.Error().Err(err).Str("model", req.Model).Msg("provider call failed")
		c.JSON(http.StatusServiceUnavailable, detailBody{Detail: fmt.Sprintf("%s API error: %s", info.Label, err)})
		return
	}

	h.log.Info().Str("model_used", result.ModelUsed).Dur("duration", time.Since(start)).Msg("chat response ready")
	c.JSON(http.StatusOK, api.ChatResponse{
		Response:   result.Text,
		ModelUsed:  result.ModelUsed,
		TokensUsed: result.TokensUsed,
	})
}

func (h *Handler) Debug(c *gin.Context) {
	payload := make(map[string]any, len(h.debug)+len(h.providers))
	for key, value := range h.debug {
		payload[key] = value
	}
	for _, p := range h.providers {
		id := p.Info().ID
		payload[id+"_initialized"] = p.Available()
		lister, ok := p.(ModelLister)
		if !ok || !p.Available() {
			continue
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		models, err := lister.GetModels(ctx)
		cancel()
		if err != nil {
			payload[id+"_models_error"] = err.Error()
			continue
		}
		names := make([]string, 0, len(models))
		for _, m := range models {
			names = append(names, m.Name)
		}
		payload[id+"_models"] = names
	}
	c.JSON(http.StatusOK, payload)
}

func (h *Handler) provider(id string) client.Provider {
	for _, p := range h.providers {
		if p.Info().ID == id {
			return p
		}
	}
	return nil
}
