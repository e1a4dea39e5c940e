package models

import (
	"time"
)

// PlaySession records one play of a game, optionally with a winner
type PlaySession struct {
	ID        string    `db:"id" json:"id"`
	EventID   *string   `db:"event_id" json:"event_id,omitempty"`
	GameID    string    `db:"game_id" json:"game_id"`
	WinnerID  *string   `db:"winner_id" json:"winner_id,omitempty"`
	PlayedAt  time.Time `db:"played_at" json:"played_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
