package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gamenight/config"
	"gamenight/database"
	"gamenight/events"
	"gamenight/notify"
	"gamenight/observability"
	"gamenight/repository"
	"gamenight/server"
	"gamenight/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), config.Get())
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log.WithField("environment", cfg.Environment).Info("Starting gamenight service...")

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	dbURL, err := databaseURL()
	if err != nil {
		return err
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, dbURL, cfg.PoolConfig("serve"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	eventBus := events.NewBus()
	notify.SubscribeAuditLog(eventBus)

	if cfg.DiscordWebhookURL != "" {
		announcer, err := notify.NewDiscordAnnouncer(cfg.DiscordWebhookURL, cfg.AnnounceTimeout)
		if err != nil {
			return fmt.Errorf("failed to configure signup announcements: %w", err)
		}
		notify.SubscribeAnnouncer(eventBus, announcer)
		log.Info("Signup announcements enabled")
	} else {
		log.Info("DISCORD_WEBHOOK_URL not set, signup announcements disabled")
	}

	publisher, err := connectForwarder(eventBus, cfg)
	if err != nil {
		return err
	}
	if publisher != nil {
		defer publisher.Close()
	}

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	verifier, err := server.NewSignatureVerifier(cfg.WebhookSigningSecret, cfg.WebhookTolerance)
	if err != nil {
		return fmt.Errorf("failed to configure webhook verification: %w", err)
	}

	var tokens *server.TokenVerifier
	if cfg.SessionJWTPublicKey != "" || cfg.SessionJWTSecret != "" {
		tokens, err = server.NewTokenVerifier(cfg.SessionJWTPublicKey, cfg.SessionJWTSecret, cfg.SessionJWTIssuer)
		if err != nil {
			return fmt.Errorf("failed to configure session tokens: %w", err)
		}
	}

	router := server.NewRouter(server.RouterConfig{
		Resolver:      service.NewIdentityResolver(uowFactory),
		Notifications: service.NewNotificationService(uowFactory),
		Verifier:      verifier,
		Tokens:        tokens,
		Store:         db,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gamenight service...")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down HTTP server")
	}
	if err := eventBus.Wait(shutdownCtx); err != nil {
		log.WithError(err).Warn("Event handlers still running at shutdown")
	}
	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.WithError(err).Error("Error shutting down metrics")
	}

	log.Info("Shutdown completed")
	return nil
}

// connectForwarder wires domain events to NATS when NATS_URL is set
func connectForwarder(eventBus *events.Bus, cfg *config.Config) (*notify.NATSPublisher, error) {
	if cfg.NATSURL == "" {
		log.Info("NATS_URL not set, event forwarding disabled")
		return nil, nil
	}

	conn, err := notify.ConnectNATS(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	publisher := notify.NewNATSPublisher(conn, cfg.NATSSubjectPrefix)
	notify.SubscribeForwarder(eventBus, publisher)
	log.WithField("prefix", cfg.NATSSubjectPrefix).Info("Forwarding identity events to NATS")
	return publisher, nil
}
