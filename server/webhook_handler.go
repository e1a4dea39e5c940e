package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"gamenight/models"
	"gamenight/observability"
	"gamenight/service"

	log "github.com/sirupsen/logrus"
)

const maxWebhookBodyBytes = 1 << 20

// WebhookHandler receives signed identity change notifications from the provider
type WebhookHandler struct {
	verifier      *SignatureVerifier
	notifications service.NotificationService
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(verifier *SignatureVerifier, notifications service.NotificationService) *WebhookHandler {
	return &WebhookHandler{
		verifier:      verifier,
		notifications: notifications,
	}
}

// ServeHTTP verifies, decodes and applies one notification.
// 400 means the delivery was rejected and nothing was written; 503 asks the provider to retry.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := requestLogger(r)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		logger.WithError(err).Warn("Failed to read webhook body")
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if err := h.verifier.Verify(r.Header, body); err != nil {
		logger.WithError(err).Warn("Rejected identity webhook")
		observability.GetMetrics().RecordWebhookEvent("", observability.OutcomeRejected)
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	var event models.IdentityEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logger.WithError(err).Warn("Failed to decode identity webhook")
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	result, err := h.notifications.Apply(r.Context(), &event)
	if err != nil {
		entry := logger.WithFields(log.Fields{
			"event_type": event.Type,
			"subject_id": event.Data.ID,
			"error":      err,
		})
		switch {
		case errors.Is(err, service.ErrInvalidEvent):
			entry.Warn("Identity webhook could not be applied")
			writeError(w, http.StatusBadRequest, "invalid event")
		case service.IsRetryable(err):
			entry.Error("Store unavailable while applying identity webhook")
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
		default:
			entry.Error("Failed to apply identity webhook")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	logger.WithFields(log.Fields{
		"event_type": event.Type,
		"ignored":    result.Ignored,
	}).Debug("Identity webhook processed")
	w.WriteHeader(http.StatusOK)
}
