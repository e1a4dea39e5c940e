package models

import (
	"time"
)

// Game is a catalog entry that users can own
type Game struct {
	ID            string    `db:"id" json:"id"`
	CatalogID     *int      `db:"catalog_id" json:"catalog_id,omitempty"`
	Name          string    `db:"name" json:"name"`
	MinPlayers    *int      `db:"min_players" json:"min_players,omitempty"`
	MaxPlayers    *int      `db:"max_players" json:"max_players,omitempty"`
	Playtime      *int      `db:"playtime" json:"playtime,omitempty"`
	YearPublished *int      `db:"year_published" json:"year_published,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// UserGame records that a user owns a game. Unique per (user, game).
type UserGame struct {
	ID        int64     `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	GameID    string    `db:"game_id" json:"game_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
