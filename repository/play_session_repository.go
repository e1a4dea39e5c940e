package repository

import (
	"context"

	"gamenight/database"
	"gamenight/models"
)

var playSessionWins = userReference{
	relation:   models.RelationPlaySessionWins,
	table:      "play_sessions",
	userColumn: "winner_id",
}

// PlaySessionRepository manages play session outcomes
type PlaySessionRepository struct {
	q queryable
}

// NewPlaySessionRepository creates a new play session repository
func NewPlaySessionRepository(db *database.DB) *PlaySessionRepository {
	return &PlaySessionRepository{q: db.Pool}
}

// newPlaySessionRepositoryWithTx creates a new play session repository with a transaction
func newPlaySessionRepositoryWithTx(tx queryable) *PlaySessionRepository {
	return &PlaySessionRepository{q: tx}
}

// Create inserts a play session
func (r *PlaySessionRepository) Create(ctx context.Context, session *models.PlaySession) error {
	query := `
		INSERT INTO play_sessions (id, event_id, game_id, winner_id, played_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		session.ID,
		session.EventID,
		session.GameID,
		session.WinnerID,
		session.PlayedAt,
	).Scan(&session.CreatedAt)
	if err != nil {
		return storeError(err, "failed to create play session %s", session.ID)
	}

	return nil
}

// ListWonBy returns the sessions a user won, most recent first
func (r *PlaySessionRepository) ListWonBy(ctx context.Context, userID string) ([]*models.PlaySession, error) {
	query := `
		SELECT id, event_id, game_id, winner_id, played_at, created_at
		FROM play_sessions
		WHERE winner_id = $1
		ORDER BY played_at DESC, id
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, storeError(err, "failed to list sessions won by %s", userID)
	}
	defer rows.Close()

	var sessions []*models.PlaySession
	for rows.Next() {
		var session models.PlaySession
		if err := rows.Scan(
			&session.ID,
			&session.EventID,
			&session.GameID,
			&session.WinnerID,
			&session.PlayedAt,
			&session.CreatedAt,
		); err != nil {
			return nil, storeError(err, "failed to scan play session")
		}
		sessions = append(sessions, &session)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError(err, "failed to iterate play sessions")
	}

	return sessions, nil
}

// Relation implements service.RelationMigrator
func (r *PlaySessionRepository) Relation() models.Relation {
	return playSessionWins.relation
}

// Plan implements service.RelationMigrator
func (r *PlaySessionRepository) Plan(ctx context.Context, fromUserID, toUserID string) (models.RelationCounts, error) {
	return playSessionWins.planCounts(ctx, r.q, fromUserID, toUserID)
}

// Migrate implements service.RelationMigrator
func (r *PlaySessionRepository) Migrate(ctx context.Context, fromUserID, toUserID string) (models.RelationCounts, error) {
	return playSessionWins.migrate(ctx, r.q, fromUserID, toUserID)
}
