package server

import (
	"encoding/json"
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

func newTestRouter(t *testing.T, resolver service.IdentityResolver, store Pinger) http.Handler {
	t.Helper()
	verifier, err := NewSignatureVerifier(testSigningSecret, 5*time.Minute)
	require.NoError(t, err)
	tokens, err := NewTokenVerifier("", testJWTSecret, "")
	require.NoError(t, err)

	return NewRouter(RouterConfig{
		Resolver:      resolver,
		Notifications: new(mockNotificationService),
		Verifier:      verifier,
		Tokens:        tokens,
		Store:         store,
	})
}

func TestRouter_Health(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestRouter(t, new(mockResolver), stubPinger{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("store down", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestRouter(t, new(mockResolver), stubPinger{err: errors.New("closed pool")}).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRouter_Profile(t *testing.T) {
	profileRequest := func(t *testing.T, token string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		req.Header.Set("X-Request-ID", "req-123")
		return req
	}

	t.Run("resolves caller on first use", func(t *testing.T) {
		resolver := new(mockResolver)
		user := &models.User{ID: "user_1", Email: models.PlaceholderEmail("user_1"), Name: models.DefaultUserName}
		resolver.On("ResolveUser", mock.Anything, "user_1").Return(user, nil)

		rec := httptest.NewRecorder()
		newTestRouter(t, resolver, stubPinger{}).ServeHTTP(rec, profileRequest(t, signHS256(t, validClaims("user_1"))))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

		var body models.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "user_1", body.ID)
		resolver.AssertExpectations(t)
	})

	t.Run("missing token", func(t *testing.T) {
		resolver := new(mockResolver)
		rec := httptest.NewRecorder()
		newTestRouter(t, resolver, stubPinger{}).ServeHTTP(rec, profileRequest(t, ""))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		resolver.AssertNotCalled(t, "ResolveUser", mock.Anything, mock.Anything)
	})

	t.Run("token without subject", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("ResolveUser", mock.Anything, "").Return(nil, service.ErrUnauthenticated)

		rec := httptest.NewRecorder()
		newTestRouter(t, resolver, stubPinger{}).ServeHTTP(rec, profileRequest(t, signHS256(t, validClaims(""))))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("store unavailable", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("ResolveUser", mock.Anything, "user_1").Return(nil, fmt.Errorf("lookup: %w", service.ErrStoreUnavailable))

		rec := httptest.NewRecorder()
		newTestRouter(t, resolver, stubPinger{}).ServeHTTP(rec, profileRequest(t, signHS256(t, validClaims("user_1"))))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestRouter_WebhookMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t, new(mockResolver), stubPinger{}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/webhooks/identity", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRecovery(t *testing.T) {
	handler := RequestID(Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
