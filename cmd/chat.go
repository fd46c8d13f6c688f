package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bz888/oblaka/internal/api"
	"github.com/bz888/oblaka/internal/config"
	"github.com/bz888/oblaka/internal/logger"
	"github.com/bz888/oblaka/internal/prefs"
	"github.com/bz888/oblaka/internal/ui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the terminal chat client",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadClient()
		if err != nil {
			return err
		}

		debugConsole := ui.NewDebugConsole()
		if err := logger.InitLogger(config.Dev, config.LogPath, debugConsole); err != nil {
			return err
		}
		defer logger.Close()

		prefsPath := cfg.PrefsPath
		if prefsPath == "" {
			if prefsPath, err = prefs.DefaultPath(); err != nil {
				return fmt.Errorf("locate preferences: %w", err)
			}
		}
		storage := prefs.NewFileStorage(prefsPath)

		ctx, stop := signalContext(cmd.Context())
		defer stop()

		client := api.NewClient(cfg.ProxyURL, cfg.ChatTimeout, cfg.ProbeTimeout, logger.NewLogger("api"))
		return ui.New(ui.Options{
			Backend:        client,
			Storage:        storage,
			Console:        debugConsole,
			HealthInterval: cfg.HealthInterval,
			ExportDir:      cfg.ExportDir,
			Dev:            config.Dev,
		}).Run(ctx)
	},
}
