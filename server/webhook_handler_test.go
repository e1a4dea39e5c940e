package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gamenight/models"
	"gamenight/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const createdBody = `{
	"type": "identity.created",
	"data": {
		"id": "user_1",
		"email_addresses": [{"email_address": "ada@example.com"}],
		"first_name": "Ada",
		"last_name": "Lovelace",
		"image_url": "https://img.example.com/ada.png"
	}
}`

func newSignedRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/identity", bytes.NewBufferString(body))
	for k, vals := range signedHeaders(t, "msg_1", time.Now(), []byte(body)) {
		req.Header[k] = vals
	}
	return req
}

func TestWebhookHandler(t *testing.T) {
	verifier, err := NewSignatureVerifier(testSigningSecret, 5*time.Minute)
	require.NoError(t, err)

	t.Run("applies a verified event", func(t *testing.T) {
		notifications := new(mockNotificationService)
		notifications.On("Apply", mock.Anything, mock.MatchedBy(func(e *models.IdentityEvent) bool {
			return e.Type == "identity.created" && e.Data.ID == "user_1" && e.Data.PrimaryEmail() == "ada@example.com"
		})).Return(&service.ApplyResult{Type: models.IdentityEventCreated, Inserted: true}, nil)

		rec := httptest.NewRecorder()
		NewWebhookHandler(verifier, notifications).ServeHTTP(rec, newSignedRequest(t, createdBody))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
		notifications.AssertExpectations(t)
	})

	t.Run("bad signature is rejected without mutation", func(t *testing.T) {
		notifications := new(mockNotificationService)
		req := newSignedRequest(t, createdBody)
		req.Header.Set(HeaderWebhookSignature, "v1,Zm9yZ2Vk")

		rec := httptest.NewRecorder()
		NewWebhookHandler(verifier, notifications).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		notifications.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	})

	t.Run("missing headers are rejected", func(t *testing.T) {
		notifications := new(mockNotificationService)
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/identity", bytes.NewBufferString(createdBody))

		rec := httptest.NewRecorder()
		NewWebhookHandler(verifier, notifications).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		notifications.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	})

	t.Run("undecodable body", func(t *testing.T) {
		notifications := new(mockNotificationService)

		rec := httptest.NewRecorder()
		NewWebhookHandler(verifier, notifications).ServeHTTP(rec, newSignedRequest(t, `{"type":`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		notifications.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
	})

	t.Run("ignored event type is acknowledged", func(t *testing.T) {
		notifications := new(mockNotificationService)
		notifications.On("Apply", mock.Anything, mock.Anything).Return(&service.ApplyResult{Ignored: true}, nil)

		rec := httptest.NewRecorder()
		NewWebhookHandler(verifier, notifications).ServeHTTP(rec,
			newSignedRequest(t, `{"type":"session.created","data":{"id":"sess_1"}}`))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid event", fmt.Errorf("%w: no subject", service.ErrInvalidEvent), http.StatusBadRequest},
		{"store unavailable", fmt.Errorf("upsert: %w", service.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{"other store error", errors.New("syntax error at or near"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifications := new(mockNotificationService)
			notifications.On("Apply", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := httptest.NewRecorder()
			NewWebhookHandler(verifier, notifications).ServeHTTP(rec, newSignedRequest(t, createdBody))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
