// Package cli defines the cobra command tree for feedbackctl.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DJ-LIFE/feedback-tool/internal/app"
	"github.com/DJ-LIFE/feedback-tool/internal/config"
	"github.com/DJ-LIFE/feedback-tool/pkg/logger"
)

var (
	flagFormat  string
	flagEnvFile string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "feedbackctl",
		Short:         "Operate the product feedback service",
		Long:          "feedbackctl runs the feedback service and inspects its statistics and rankings from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", ".env", "dotenv file read before the environment")

	root.AddCommand(
		newMigrateCmd(),
		newServeCmd(),
		newStatsCmd(),
		newPopularCmd(),
		newSeedCmd(),
	)

	return root
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// loadApp reads configuration and wires the application. Logs go to stderr
// so that command output stays machine readable.
func loadApp() (*app.App, error) {
	cfg, err := config.Load(flagEnvFile)
	if err != nil {
		return nil, err
	}

	log := logger.NewWithWriter(config.ServiceName, cfg.LogLevel, os.Stderr)
	a, err := app.NewApp(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("initialize application: %w", err)
	}
	return a, nil
}
