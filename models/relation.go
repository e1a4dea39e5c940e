package models

// Relation names a dependent table holding a foreign key to users
type Relation string

const (
	RelationHostedEvents    Relation = "hosted_events"
	RelationGameOwnership   Relation = "game_ownership"
	RelationEventAttendance Relation = "event_attendance"
	RelationPlaySessionWins Relation = "play_session_wins"
)

// Relations lists every dependent relation in migration order
var Relations = []Relation{
	RelationGameOwnership,
	RelationEventAttendance,
	RelationHostedEvents,
	RelationPlaySessionWins,
}

// RelationCounts tallies rows touched while moving one relation onto a survivor.
// Moved rows were re-pointed; Collapsed rows were deleted because the survivor
// already held an equivalent row.
type RelationCounts struct {
	Moved     int64 `json:"moved"`
	Collapsed int64 `json:"collapsed"`
}

// Total returns the number of rows touched
func (c RelationCounts) Total() int64 {
	return c.Moved + c.Collapsed
}
