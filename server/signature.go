package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gamenight/service"

	svix "github.com/svix/svix-webhooks/go"
)

// Webhook signature headers sent by the identity provider
const (
	HeaderWebhookID        = "svix-id"
	HeaderWebhookTimestamp = "svix-timestamp"
	HeaderWebhookSignature = "svix-signature"

	unbrandedHeaderWebhookTimestamp = "webhook-timestamp"
)

const secretPrefix = "whsec_"

// SignatureVerifier checks the provider's svix signature over a delivery and rejects
// deliveries whose timestamp is outside the tolerance window.
type SignatureVerifier struct {
	webhook   *svix.Webhook
	tolerance time.Duration
	now       func() time.Time
}

// NewSignatureVerifier builds a verifier from a whsec_-prefixed base64 signing secret
func NewSignatureVerifier(secret string, tolerance time.Duration) (*SignatureVerifier, error) {
	secret = strings.TrimSpace(secret)
	if strings.TrimPrefix(secret, secretPrefix) == "" {
		return nil, fmt.Errorf("webhook signing secret is empty")
	}

	webhook, err := svix.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook signing secret: %w", err)
	}

	return &SignatureVerifier{
		webhook:   webhook,
		tolerance: tolerance,
		now:       time.Now,
	}, nil
}

// Verify returns an error wrapping service.ErrSignatureInvalid unless the headers carry a
// matching v1 signature for body and a timestamp within the tolerance window
func (v *SignatureVerifier) Verify(header http.Header, body []byte) error {
	if err := v.webhook.VerifyIgnoringTimestamp(body, header); err != nil {
		return fmt.Errorf("%w: %w", service.ErrSignatureInvalid, err)
	}

	timestamp := header.Get(HeaderWebhookTimestamp)
	if timestamp == "" {
		timestamp = header.Get(unbrandedHeaderWebhookTimestamp)
	}
	seconds, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", service.ErrSignatureInvalid)
	}

	sent := time.Unix(seconds, 0)
	now := v.now()
	if now.Sub(sent) > v.tolerance {
		return fmt.Errorf("%w: timestamp too old", service.ErrSignatureInvalid)
	}
	if sent.Sub(now) > v.tolerance {
		return fmt.Errorf("%w: timestamp too new", service.ErrSignatureInvalid)
	}

	return nil
}
