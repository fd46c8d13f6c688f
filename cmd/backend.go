package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bz888/oblaka/internal/backend"
	"github.com/bz888/oblaka/internal/config"
	"github.com/bz888/oblaka/internal/logger"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Run the reference AI backend (OpenAI, Gemini, Ollama)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadBackend()
		if err != nil {
			return err
		}
		log := logger.New(cfg.ServiceName, cfg.Environment, cfg.LogLevel)
		log.Info().
			Bool("openai_key_set", cfg.OpenAIKey != "").
			Bool("gemini_key_set", cfg.GeminiKey != "").
			Bool("ollama_host_set", cfg.OllamaHost != "").
			Msg("backend configuration loaded")

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		providers := backend.NewProviders(cfg, log)
		if err := backend.New(cfg, providers, log).Run(ctx); err != nil {
			log.Error().Err(err).Msg("backend stopped with error")
			return err
		}
		return nil
	},
}
