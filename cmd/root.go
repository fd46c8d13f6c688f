// Package cmd wires configuration, logging and the three entry points of
// the oblaka binary.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bz888/oblaka/internal/config"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "oblaka",
	Short: "Oblaka AI chat: terminal client, relay proxy and reference backend",
	Long: `oblaka bundles a minimal AI chat stack.

  oblaka backend   # upstream answering /health, /models and /chat
  oblaka proxy     # relay exposing /api/health, /api/models and /api/chat
  oblaka chat      # terminal chat client talking to the proxy

Configuration comes from the environment and from .env files.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		config.LoadEnvFiles()
	},
}

func init() {
	config.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(proxyCmd)
	rootCmd.AddCommand(backendCmd)
	rootCmd.AddCommand(chatCmd)
}

// Execute runs the selected subcommand and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
