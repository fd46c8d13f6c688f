package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bz888/oblaka/internal/backend/client"
	"github.com/bz888/oblaka/internal/config"
)

// Server wraps the gin engine of the reference backend.
type Server struct {
	cfg    *config.BackendConfig
	engine *gin.Engine
	log    zerolog.Logger
}

// NewProviders builds the OpenAI, Gemini and Ollama providers from cfg.
func NewProviders(cfg *config.BackendConfig, log zerolog.Logger) []client.Provider {
	return []client.Provider{
		client.NewOpenAIClient(client.OpenAIConfig{
			Info: client.Info{
				ID:          "openai",
				Label:       "OpenAI",
				Name:        "OpenAI " + cfg.OpenAIModel,
				Description: "Language model by OpenAI",
				MaxTokens:   4000,
			},
			APIKey:       cfg.OpenAIKey,
			BackupAPIKey: cfg.OpenAIBackupKey,
			Model:        cfg.OpenAIModel,
			SystemPrompt: cfg.SystemPrompt,
		}, log),
		client.NewOpenAIClient(client.OpenAIConfig{
			Info: client.Info{
				ID:          "gemini",
				Label:       "Gemini",
				Name:        "Google " + cfg.GeminiModel,
				Description: "Language model by Google",
				MaxTokens:   8000,
			},
			APIKey:       cfg.GeminiKey,
			BackupAPIKey: cfg.GeminiBackupKey,
			Model:        cfg.GeminiModel,
			BaseURL:      cfg.GeminiBaseURL,
			SystemPrompt: cfg.SystemPrompt,
		}, log),
		client.NewOllamaClient(client.Info{
			ID:          "ollama",
			Label:       "Ollama",
			Name:        "Ollama " + cfg.OllamaModel,
			Description: "Local model served by Ollama",
			MaxTokens:   8000,
		}, cfg.OllamaHost, cfg.OllamaModel, cfg.SystemPrompt, log),
	}
}

// DebugInfo reports which credentials are configured, never their values.
func DebugInfo(cfg *config.BackendConfig) map[string]any {
	return map[string]any{
		"openai_key_set":  cfg.OpenAIKey != "",
		"openai_key2_set": cfg.OpenAIBackupKey != "",
		"gemini_key_set":  cfg.GeminiKey != "",
		"gemini_key2_set": cfg.GeminiBackupKey != "",
		"ollama_host_set": cfg.OllamaHost != "",
		"openai_model":    cfg.OpenAIModel,
		"gemini_model":    cfg.GeminiModel,
		"ollama_model":    cfg.OllamaModel,
	}
}

// New constructs the backend with its middleware and routes.
func New(cfg *config.BackendConfig, providers []client.Provider, log zerolog.Logger) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.RedirectTrailingSlash = false
	engine.Use(requestLog(log))
	engine.Use(gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, err any) {
		log.Error().Interface("panic", err).Msg("unhandled error in request pipeline")
		c.AbortWithStatusJSON(http.StatusInternalServerError, detailBody{Detail: "Internal Server Error"})
	}))

	handler := NewHandler(providers, DebugInfo(cfg), log.With().Str("component", "backend").Logger())
	engine.GET("/", handler.Root)
	engine.GET("/health", handler.Health)
	engine.GET("/models", handler.Models)
	engine.POST("/chat", handler.Chat)
	engine.GET("/debug", handler.Debug)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, detailBody{Detail: "Not Found"})
	})

	return &Server{cfg: cfg, engine: engine, log: log}
}

func requestLog(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// Handler exposes the engine as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr()).Msg("backend listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("termination signal received, shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
