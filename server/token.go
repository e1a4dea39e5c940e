package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken means the session token could not be verified
var ErrInvalidToken = errors.New("invalid session token")

// TokenVerifier extracts the subject id from a session token issued by the identity provider
type TokenVerifier struct {
	key     any
	methods []string
	issuer  string
}

// NewTokenVerifier builds a verifier from an RS256 public key in PEM form, or from an
// HS256 shared secret when no key is given
func NewTokenVerifier(publicKeyPEM, secret, issuer string) (*TokenVerifier, error) {
	v := &TokenVerifier{issuer: issuer}

	switch {
	case strings.TrimSpace(publicKeyPEM) != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("failed to parse session public key: %w", err)
		}
		v.key = key
		v.methods = []string{jwt.SigningMethodRS256.Alg()}
	case secret != "":
		v.key = []byte(secret)
		v.methods = []string{jwt.SigningMethodHS256.Alg()}
	default:
		return nil, fmt.Errorf("session token verification needs a public key or a secret")
	}

	return v, nil
}

// Subject verifies token and returns its sub claim
func (v *TokenVerifier) Subject(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5 * time.Second),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	return claims.Subject, nil
}
