package repository

import (
	"context"

	"gamenight/database"
	"gamenight/models"
)

var gameOwnership = userReference{
	relation:    models.RelationGameOwnership,
	table:       "user_games",
	userColumn:  "user_id",
	scopeColumn: "game_id",
}

// GameRepository manages catalog games and the user_games ownership relation
type GameRepository struct {
	q queryable
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{q: db.Pool}
}

// newGameRepositoryWithTx creates a new game repository with a transaction
func newGameRepositoryWithTx(tx queryable) *GameRepository {
	return &GameRepository{q: tx}
}

// Create inserts a game
func (r *GameRepository) Create(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (id, catalog_id, name, min_players, max_players, playtime, year_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		game.ID,
		game.CatalogID,
		game.Name,
		game.MinPlayers,
		game.MaxPlayers,
		game.Playtime,
		game.YearPublished,
	).Scan(&game.CreatedAt, &game.UpdatedAt)
	if err != nil {
		return storeError(err, "failed to create game %s", game.ID)
	}

	return nil
}

// AddOwner records that userID owns gameID. Owning a game twice is a no-op.
func (r *GameRepository) AddOwner(ctx context.Context, userID, gameID string) error {
	query := `
		INSERT INTO user_games (user_id, game_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, game_id) DO NOTHING
	`

	if _, err := r.q.Exec(ctx, query, userID, gameID); err != nil {
		return storeError(err, "failed to add owner %s to game %s", userID, gameID)
	}
	return nil
}

// ListOwned returns the ownership rows of a user
func (r *GameRepository) ListOwned(ctx context.Context, userID string) ([]*models.UserGame, error) {
	query := `
		SELECT id, user_id, game_id, created_at
		FROM user_games
		WHERE user_id = $1
		ORDER BY game_id
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, storeError(err, "failed to list games owned by %s", userID)
	}
	defer rows.Close()

	var owned []*models.UserGame
	for rows.Next() {
		var ug models.UserGame
		if err := rows.Scan(&ug.ID, &ug.UserID, &ug.GameID, &ug.CreatedAt); err != nil {
			return nil, storeError(err, "failed to scan user game")
		}
		owned = append(owned, &ug)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError(err, "failed to iterate user games")
	}

	return owned, nil
}

// Relation implements service.RelationMigrator
func (r *GameRepository) Relation() models.Relation {
	return gameOwnership.relation
}

// Plan implements service.RelationMigrator
func (r *GameRepository) Plan(ctx context.Context, fromUserID, toUserID string) (models.RelationCounts, error) {
	return gameOwnership.planCounts(ctx, r.q, fromUserID, toUserID)
}

// Migrate implements service.RelationMigrator
func (r *GameRepository) Migrate(ctx context.Context, fromUserID, toUserID string) (models.RelationCounts, error) {
	return gameOwnership.migrate(ctx, r.q, fromUserID, toUserID)
}
