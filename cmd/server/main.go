package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Frans06/website/internal/config"
	"github.com/Frans06/website/internal/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serve := newServeCmd()
	root := &cobra.Command{
		Use:           "server",
		Short:         "Portfolio blog backend",
		Long:          "Serves the blog API and manages its schema and authors.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.AddCommand(serve, newMigrateCmd(), newUserCmd())
	return root
}

// bootstrap loads configuration and installs the process logger.
func bootstrap() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.Init(&logger.Config{
		Level:      logger.ParseLevel(cfg.App.LogLevel),
		Output:     os.Stdout,
		JSON:       cfg.App.LogJSON,
		AddSource:  cfg.IsDevelopment(),
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	log.Info("Configuration loaded",
		"environment", cfg.App.Environment,
		"addr", cfg.BindAddress(),
		"db_max_connections", cfg.Database.MaxConnections,
	)
	return cfg, log, nil
}
