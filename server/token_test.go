package server

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "gamenight-session-secret"

func signHS256(t *testing.T, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func validClaims(subject string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    "https://clerk.example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
}

func TestTokenVerifier_HS256(t *testing.T) {
	v, err := NewTokenVerifier("", testJWTSecret, "https://clerk.example.com")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		subject, err := v.Subject(signHS256(t, validClaims("user_1")))
		require.NoError(t, err)
		assert.Equal(t, "user_1", subject)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := validClaims("user_1")
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		_, err := v.Subject(signHS256(t, claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := validClaims("user_1")
		claims.ExpiresAt = nil
		_, err := v.Subject(signHS256(t, claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := validClaims("user_1")
		claims.Issuer = "https://evil.example.com"
		_, err := v.Subject(signHS256(t, claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims("user_1")).SignedString([]byte("other"))
		require.NoError(t, err)
		_, err = v.Subject(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Subject("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenVerifier_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	v, err := NewTokenVerifier(publicPEM, "", "")
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims("user_rsa")).SignedString(key)
	require.NoError(t, err)

	subject, err := v.Subject(token)
	require.NoError(t, err)
	assert.Equal(t, "user_rsa", subject)

	// HS256 tokens are refused when an RSA key is configured
	_, err = v.Subject(signHS256(t, validClaims("user_rsa")))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenVerifier_NeedsKey(t *testing.T) {
	_, err := NewTokenVerifier("", "", "")
	assert.Error(t, err)

	_, err = NewTokenVerifier("-----BEGIN PUBLIC KEY-----\nnope\n-----END PUBLIC KEY-----", "", "")
	assert.Error(t, err)
}
