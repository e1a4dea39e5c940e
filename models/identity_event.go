package models

import (
	"strings"
)

// IdentityEventType is the type string carried by provider change notifications
type IdentityEventType string

const (
	IdentityEventCreated IdentityEventType = "identity.created"
	IdentityEventUpdated IdentityEventType = "identity.updated"
)

// providerEventAliases maps the provider's native event names onto ours
var providerEventAliases = map[string]IdentityEventType{
	"user.created": IdentityEventCreated,
	"user.updated": IdentityEventUpdated,
}

// IdentityEvent is the decoded body of a provider change notification
type IdentityEvent struct {
	Type string            `json:"type"`
	Data IdentityEventData `json:"data"`
}

// IdentityEventData carries the provider's view of one subject
type IdentityEventData struct {
	ID             string              `json:"id"`
	EmailAddresses []ProviderEmailAddr `json:"email_addresses"`
	FirstName      *string             `json:"first_name,omitempty"`
	LastName       *string             `json:"last_name,omitempty"`
	ImageURL       *string             `json:"image_url,omitempty"`
}

// ProviderEmailAddr is one entry of the provider's email list
type ProviderEmailAddr struct {
	EmailAddress string `json:"email_address"`
}

// NormalizedType returns the event type with provider aliases resolved.
// The boolean is false for types this service does not handle.
func (e *IdentityEvent) NormalizedType() (IdentityEventType, bool) {
	t := IdentityEventType(e.Type)
	switch t {
	case IdentityEventCreated, IdentityEventUpdated:
		return t, true
	}
	if alias, ok := providerEventAliases[e.Type]; ok {
		return alias, true
	}
	return "", false
}

// PrimaryEmail returns the first non-empty email address, or ""
func (d *IdentityEventData) PrimaryEmail() string {
	for _, addr := range d.EmailAddresses {
		if email := strings.TrimSpace(addr.EmailAddress); email != "" {
			return email
		}
	}
	return ""
}

// DisplayName joins first and last name, falling back to the primary email
func (d *IdentityEventData) DisplayName() string {
	var first, last string
	if d.FirstName != nil {
		first = *d.FirstName
	}
	if d.LastName != nil {
		last = *d.LastName
	}
	if name := strings.TrimSpace(first + " " + last); name != "" {
		return name
	}
	return d.PrimaryEmail()
}

// ProviderProfile is the authoritative field set applied to a user record
type ProviderProfile struct {
	SubjectID string
	Email     string
	Name      string
	Avatar    *string
}

// Profile extracts the fields the notification handler writes
func (e *IdentityEvent) Profile() ProviderProfile {
	return ProviderProfile{
		SubjectID: strings.TrimSpace(e.Data.ID),
		Email:     e.Data.PrimaryEmail(),
		Name:      e.Data.DisplayName(),
		Avatar:    e.Data.ImageURL,
	}
}
