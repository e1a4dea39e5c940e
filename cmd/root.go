package cmd

import (
	"context"
	"fmt"
	"os"

	"gamenight/config"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gamenight",
		Short: "Game night identity service",
		Long: `gamenight maps identity provider subjects onto canonical user records.

It serves the identity webhook and the authenticated API, runs schema
migrations, and consolidates duplicate user records.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(config.Get())
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newConsolidateCmd())

	return rootCmd
}

// Execute runs the root command with ctx cancelled on shutdown signals
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func setupLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	switch cfg.LogFormat {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func databaseURL() (string, error) {
	url, err := config.Get().GetDatabaseURL()
	if err != nil {
		return "", fmt.Errorf("failed to construct database URL: %w", err)
	}
	return url, nil
}
