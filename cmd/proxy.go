package cmd

import (
	"github.com/spf13/cobra"

	"github.com/bz888/oblaka/internal/api/server"
	"github.com/bz888/oblaka/internal/config"
	"github.com/bz888/oblaka/internal/logger"
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Run the relay in front of the AI backend",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadProxy()
		if err != nil {
			return err
		}
		log := logger.New(cfg.ServiceName, cfg.Environment, cfg.LogLevel)

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		upstream := server.NewUpstream(cfg.BackendURL, cfg.UpstreamTimeout)
		if err := server.New(cfg, upstream, log).Run(ctx); err != nil {
			log.Error().Err(err).Msg("proxy stopped with error")
			return err
		}
		log.Info().Msg("proxy stopped")
		return nil
	},
}
