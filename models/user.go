package models

import (
	"strings"
	"time"
)

const (
	placeholderEmailPrefix = "identity-"
	placeholderEmailDomain = "@placeholder.local"

	// DefaultUserName is the display name given to placeholder records
	DefaultUserName = "User"
)

// User is the canonical internal record for one external subject
type User struct {
	ID                string    `db:"id" json:"id"`
	ExternalSubjectID *string   `db:"external_subject_id" json:"external_subject_id,omitempty"`
	Email             string    `db:"email" json:"email"`
	Name              string    `db:"name" json:"name"`
	Avatar            *string   `db:"avatar" json:"avatar,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// IsPlaceholder reports whether the record still carries a placeholder email
func (u *User) IsPlaceholder() bool {
	return IsPlaceholderEmail(u.Email)
}

// SubjectID returns the explicit external subject id, or "" when the column is unset
func (u *User) SubjectID() string {
	if u.ExternalSubjectID == nil {
		return ""
	}
	return *u.ExternalSubjectID
}

// PlaceholderEmail builds the reserved email used for records created before the
// provider has delivered authoritative profile data.
func PlaceholderEmail(subjectID string) string {
	return placeholderEmailPrefix + subjectID + placeholderEmailDomain
}

// IsPlaceholderEmail reports whether email matches the reserved placeholder pattern
func IsPlaceholderEmail(email string) bool {
	_, ok := SubjectFromPlaceholderEmail(email)
	return ok
}

// SubjectFromPlaceholderEmail decodes the subject id embedded in a placeholder email
func SubjectFromPlaceholderEmail(email string) (string, bool) {
	email = strings.TrimSpace(email)
	if !strings.HasPrefix(email, placeholderEmailPrefix) || !strings.HasSuffix(email, placeholderEmailDomain) {
		return "", false
	}
	subject := email[len(placeholderEmailPrefix) : len(email)-len(placeholderEmailDomain)]
	if subject == "" {
		return "", false
	}
	return subject, true
}
