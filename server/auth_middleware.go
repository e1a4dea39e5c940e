package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gamenight/models"
	"gamenight/service"
)

type contextKey string

const userContextKey contextKey = "user"

// subjectExtractor returns the subject id carried by a bearer token
type subjectExtractor interface {
	Subject(token string) (string, error)
}

// Auth verifies the bearer token, resolves its subject to the canonical user record
// and stores the record in the request context
func Auth(tokens subjectExtractor, resolver service.IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			subject, err := tokens.Subject(token)
			if err != nil {
				requestLogger(r).WithError(err).Debug("Rejected session token")
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			user, err := resolver.ResolveUser(r.Context(), subject)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrUnauthenticated):
					writeError(w, http.StatusUnauthorized, "token has no subject")
				case service.IsRetryable(err):
					requestLogger(r).WithError(err).Error("Store unavailable while resolving subject")
					writeError(w, http.StatusServiceUnavailable, "store unavailable")
				default:
					requestLogger(r).WithError(err).Error("Failed to resolve subject")
					writeError(w, http.StatusInternalServerError, "internal error")
				}
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// GetUser returns the authenticated user from the request context
func GetUser(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}
