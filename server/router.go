package server

import (
	"context"
	"net/http"
	"time"

	"gamenight/service"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// Pinger reports whether the store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig holds the collaborators of the HTTP surface
type RouterConfig struct {
	Resolver      service.IdentityResolver
	Notifications service.NotificationService
	Verifier      *SignatureVerifier
	Tokens        *TokenVerifier
	Store         Pinger
}

// NewRouter creates the HTTP router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(RequestID)
	r.Use(Recovery)
	r.Use(Logging)

	r.HandleFunc("/health", healthHandler(cfg.Store)).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/webhooks/identity", NewWebhookHandler(cfg.Verifier, cfg.Notifications)).Methods(http.MethodPost)

	if cfg.Tokens != nil {
		protected := api.PathPrefix("/user").Subrouter()
		protected.Use(Auth(cfg.Tokens, cfg.Resolver))
		protected.HandleFunc("/profile", ProfileHandler).Methods(http.MethodGet)
	} else {
		log.Warn("No session token verifier configured, /api/user routes disabled")
	}

	return r
}

func healthHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				requestLogger(r).WithError(err).Warn("Health check failed")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
