package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planwheel/planwheel/pkg/telemetry"
)

var (
	// Global flags
	logLevel  string
	logFormat string
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "planwheel",
		Short: "Planwheel - plan execution engine for long-running services",
		Long: `Planwheel drives multi-step deployment, upgrade and uninstall workflows
for long-running services as hierarchical, interruptible, resumable plans.

A plan is an ordered tree of phases and steps. Strategies decide which
steps are eligible to run next, the coordinator starts them as cluster
capacity allows, and the control API lets operators inspect and steer
progress: continue, interrupt, force-complete or restart any part of the
tree.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")

	rootCmd.AddCommand(newServeCommand(version))
	rootCmd.AddCommand(newUninstallCommand(version))
	rootCmd.AddCommand(newValidateCommand())

	return rootCmd
}

func telemetryConfig(version, serviceName string, metricsEnabled bool) *telemetry.Config {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceName = serviceName
	cfg.ServiceVersion = version
	cfg.Logging.Level = logLevel
	cfg.Logging.Format = logFormat
	cfg.Metrics.Enabled = metricsEnabled
	return cfg
}
