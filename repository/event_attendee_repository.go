package repository

import (
	"context"

	"gamenight/database"
	"gamenight/models"
)

var eventAttendance = userReference{
	relation:    models.RelationEventAttendance,
	table:       "event_attendees",
	userColumn:  "user_id",
	scopeColumn: "event_id",
}

// EventAttendeeRepository manages RSVPs
type EventAttendeeRepository struct {
	q queryable
}

// NewEventAttendeeRepository creates a new event attendee repository
func NewEventAttendeeRepository(db *database.DB) *EventAttendeeRepository {
	return &EventAttendeeRepository{q: db.Pool}
}

// newEventAttendeeRepositoryWithTx creates a new event attendee repository with a transaction
func newEventAttendeeRepositoryWithTx(tx queryable) *EventAttendeeRepository {
	return &EventAttendeeRepository{q: tx}
}

// RSVP records or changes a user's answer for an event
func (r *EventAttendeeRepository) RSVP(ctx context.Context, eventID, userID string, status models.RSVPStatus) (*models.EventAttendee, error) {
	query := `
		INSERT INTO event_attendees (event_id, user_id, rsvp_status)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO UPDATE SET rsvp_status = EXCLUDED.rsvp_status
		RETURNING id, event_id, user_id, rsvp_status, created_at
	`

	var attendee models.EventAttendee
	err := r.q.QueryRow(ctx, query, eventID, userID, status).Scan(
		&attendee.ID,
		&attendee.EventID,
		&attendee.UserID,
		&attendee.RSVPStatus,
		&attendee.CreatedAt,
	)
	if err != nil {
		return nil, storeError(err, "failed to rsvp %s to event %s", userID, eventID)
	}

	return &attendee, nil
}

// ListByUser returns a user's RSVPs
func (r *EventAttendeeRepository) ListByUser(ctx context.Context, userID string) ([]*models.EventAttendee, error) {
	query := `
		SELECT id, event_id, user_id, rsvp_status, created_at
		FROM event_attendees
		WHERE user_id = $1
		ORDER BY event_id
	`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, storeError(err, "failed to list rsvps of %s", userID)
	}
	defer rows.Close()

	var attendees []*models.EventAttendee
	for rows.Next() {
		var attendee models.EventAttendee
		if err := rows.Scan(
			&attendee.ID,
			&attendee.EventID,
			&attendee.UserID,
			&attendee.RSVPStatus,
			&attendee.CreatedAt,
		); err != nil {
			return nil, storeError(err, "failed to scan event attendee")
		}
		attendees = append(attendees, &attendee)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError(err, "failed to iterate event attendees")
	}

	return attendees, nil
}

// Relation implements service.RelationMigrator
func (r *EventAttendeeRepository) Relation() models.Relation {
	return eventAttendance.relation
}

// Plan implements service.RelationMigrator
func (r *EventAttendeeRepository) Plan(ctx context.Context, fromUserID, toUserID string) (models.RelationCounts, error) {
	return eventAttendance.planCounts(ctx, r.q, fromUserID, toUserID)
}

// Migrate implements service.RelationMigrator
func (r *EventAttendeeRepository) Migrate(ctx context.Context, fromUserID, toUserID string) (models.RelationCounts, error) {
	return eventAttendance.migrate(ctx, r.q, fromUserID, toUserID)
}
