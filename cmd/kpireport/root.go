package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"kpipulse/internal/config"
	"kpipulse/internal/infrastructure"
	"kpipulse/internal/services"
	"kpipulse/pkg/contracts"
)

type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "kpireport",
		Short:         "Run the KPI dashboard pipeline over CSV exports",
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate(contracts.GetFullVersionString() + "\n")
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file (defaults to $KPI_CONFIG_FILE or config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override the log level (debug, info, warn, error)")

	cmd.AddCommand(newProcessCmd(opts))
	cmd.AddCommand(newDiagnosticsCmd(opts))
	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// setup loads configuration, applies overrides and builds a dashboard
// service that logs to the command's stderr.
func (o *rootOptions) setup(cmd *cobra.Command, overrides ...func(*config.Config)) (*config.Config, *services.DashboardService, *slog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configFile != "" {
		cfg, err = config.LoadFrom(o.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, nil, err
	}

	// Logs go to stderr so stdout stays machine-readable.
	cfg.Logging.Output = "console"
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	for _, override := range overrides {
		override(cfg)
	}

	logger, err := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	svc, err := services.NewDashboardService(cfg.Dashboard, nil, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, svc.WithSource("cli"), logger, nil
}
