package models

import (
	"time"
)

// RSVPStatus represents an attendee's answer to an event invitation
type RSVPStatus string

const (
	RSVPStatusGoing    RSVPStatus = "going"
	RSVPStatusMaybe    RSVPStatus = "maybe"
	RSVPStatusNotGoing RSVPStatus = "not_going"
)

// Event is a scheduled game night hosted by one user
type Event struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	Location    *string   `db:"location" json:"location,omitempty"`
	StartsAt    time.Time `db:"starts_at" json:"starts_at"`
	HostID      string    `db:"host_id" json:"host_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// EventAttendee is a user's RSVP to an event. Unique per (event, user).
type EventAttendee struct {
	ID         int64      `db:"id" json:"id"`
	EventID    string     `db:"event_id" json:"event_id"`
	UserID     string     `db:"user_id" json:"user_id"`
	RSVPStatus RSVPStatus `db:"rsvp_status" json:"rsvp_status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
