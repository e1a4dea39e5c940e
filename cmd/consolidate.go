package cmd

import (
	"context"
	"fmt"

	"gamenight/config"
	"gamenight/database"
	"gamenight/events"
	"gamenight/notify"
	"gamenight/observability"
	"gamenight/repository"
	"gamenight/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	subjectPrefixFlag = "subject-prefix"
	anyIDFlag         = "any-id"
)

func newConsolidateCmd() *cobra.Command {
	var dryRun bool

	consolidateCmd := &cobra.Command{
		Use:   "consolidate",
		Short: "Merge duplicate user records onto one survivor per subject",
		Long: `consolidate scans every user, groups records that belong to the same
identity provider subject, and moves each duplicate's games, events,
RSVPs and wins onto the surviving record before deleting it.

Rows whose id is a legacy subject id join their subject's group when the
id carries --subject-prefix. Use --any-id when legacy ids have no common
prefix; every id then counts as a subject id.

Each duplicate is merged in its own transaction. A failed duplicate is
reported and the run continues. Running again after a clean run is a no-op.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			return consolidate(cmd, cfg, service.ConsolidationOptions{
				DryRun:          dryRun,
				SubjectIDPrefix: subjectIDPrefix(cmd, cfg),
			})
		},
	}

	consolidateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be merged without changing anything")
	consolidateCmd.Flags().String(subjectPrefixFlag, "", "Prefix marking legacy ids that are subject ids (env: SUBJECT_ID_PREFIX)")
	consolidateCmd.Flags().Bool(anyIDFlag, false, "Treat every user id as a subject id (env: SUBJECT_ID_ANY)")

	return consolidateCmd
}

// subjectIDPrefix picks the id prefix for grouping legacy rows. Flags win over config,
// and an empty prefix means any id qualifies.
func subjectIDPrefix(cmd *cobra.Command, cfg *config.Config) *string {
	prefix := cfg.SubjectIDPrefix
	anyID := cfg.SubjectIDAny

	flags := cmd.Flags()
	if flags.Changed(subjectPrefixFlag) {
		prefix, _ = flags.GetString(subjectPrefixFlag)
	}
	if flags.Changed(anyIDFlag) {
		anyID, _ = flags.GetBool(anyIDFlag)
	}

	if anyID {
		prefix = ""
	}
	return &prefix
}

func consolidate(cmd *cobra.Command, cfg *config.Config, opts service.ConsolidationOptions) error {
	ctx := cmd.Context()

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	dbURL, err := databaseURL()
	if err != nil {
		return err
	}

	db, err := database.NewConnection(ctx, dbURL, cfg.PoolConfig("consolidate"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	eventBus := events.NewBus()
	notify.SubscribeAuditLog(eventBus)
	publisher, err := connectForwarder(eventBus, cfg)
	if err != nil {
		return err
	}

	consolidation := service.NewConsolidationService(repository.NewUnitOfWorkFactory(db, eventBus))
	report, runErr := consolidation.Run(ctx, opts)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := eventBus.Wait(shutdownCtx); err != nil {
		log.WithError(err).Warn("Event handlers still running after consolidation")
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Warn("Error draining NATS connection")
		}
	}
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	if runErr != nil {
		return fmt.Errorf("consolidation failed: %w", runErr)
	}

	if err := report.WriteText(cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if failures := len(report.Failures()); failures > 0 {
		log.WithField("failures", failures).Warn("Some duplicates could not be merged, run again after fixing them")
	}
	return nil
}
