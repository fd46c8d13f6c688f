package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bz888/oblaka/internal/config"
)

// Server wraps the gin engine of the relay.
type Server struct {
	cfg     *config.ProxyConfig
	engine  *gin.Engine
	metrics *Metrics
	log     zerolog.Logger
}

// New constructs the relay with its middleware and routes.
func New(cfg *config.ProxyConfig, upstream Forwarder, log zerolog.Logger) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var metrics *Metrics
	if cfg.EnableMetrics {
		metrics = NewMetrics()
	}

	engine := gin.New()
	engine.RedirectTrailingSlash = false
	engine.Use(requestID())
	engine.Use(accessLog(log, metrics))
	engine.Use(recovery(log))

	handler := NewHandler(upstream, metrics, log.With().Str("component", "relay").Logger())
	registerRoutes(engine, handler, metrics)

	return &Server{
		cfg:     cfg,
		engine:  engine,
		metrics: metrics,
		log:     log,
	}
}

// Handler exposes the engine as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the listener and returns once ctx is cancelled or the listener
// fails. In-flight requests get ShutdownTimeout to finish.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr()).Str("backend_url", s.cfg.BackendURL).Msg("proxy listening")
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
