package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gamenight/models"

	"github.com/stretchr/testify/require"
)

// InsertUser writes a user row directly, bypassing the resolver and webhook paths.
// Used to seed legacy rows the consolidator has to repair.
func InsertUser(t *testing.T, td *TestDatabase, user *models.User) *models.User {
	t.Helper()

	if user.Name == "" {
		user.Name = models.DefaultUserName
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt

	_, err := td.DB.Exec(context.Background(), `
		INSERT INTO users (id, external_subject_id, email, name, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, user.ID, user.ExternalSubjectID, user.Email, user.Name, user.Avatar, user.CreatedAt, user.UpdatedAt)
	require.NoError(t, err)

	return user
}

// CreateTestPlaceholderUser builds the record the resolver would create for subject
func CreateTestPlaceholderUser(subject string) *models.User {
	return &models.User{
		ID:                subject,
		ExternalSubjectID: &subject,
		Email:             models.PlaceholderEmail(subject),
		Name:              models.DefaultUserName,
	}
}

// CreateTestLegacyPlaceholderUser builds a placeholder row that predates external_subject_id
func CreateTestLegacyPlaceholderUser(id, subject string) *models.User {
	return &models.User{
		ID:    id,
		Email: models.PlaceholderEmail(subject),
		Name:  models.DefaultUserName,
	}
}

// CreateTestRealUser builds a row carrying provider profile data and no subject column
func CreateTestRealUser(id, email, name string) *models.User {
	return &models.User{
		ID:    id,
		Email: email,
		Name:  name,
	}
}

// CreateTestGame builds a catalog game
func CreateTestGame(id string) *models.Game {
	return &models.Game{
		ID:   id,
		Name: fmt.Sprintf("Game %s", id),
	}
}

// CreateTestEvent builds an event hosted by hostID
func CreateTestEvent(id, hostID string) *models.Event {
	return &models.Event{
		ID:       id,
		Title:    fmt.Sprintf("Game night %s", id),
		StartsAt: time.Date(2025, 3, 14, 19, 0, 0, 0, time.UTC),
		HostID:   hostID,
	}
}

// CreateTestPlaySession builds a session of gameID won by winnerID
func CreateTestPlaySession(id, gameID string, winnerID *string) *models.PlaySession {
	return &models.PlaySession{
		ID:       id,
		GameID:   gameID,
		WinnerID: winnerID,
		PlayedAt: time.Date(2025, 3, 14, 21, 0, 0, 0, time.UTC),
	}
}
