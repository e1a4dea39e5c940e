package repository

import (
	"context"

	"gamenight/database"
	"gamenight/models"

	"github.com/jackc/pgx/v5"
)

var hostedEvents = userReference{
	relation:   models.RelationHostedEvents,
	table:      "events",
	userColumn: "host_id",
}

// EventRepository manages game night events and their host relation
type EventRepository struct {
	q queryable
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{q: db.Pool}
}

// newEventRepositoryWithTx creates a new event repository with a transaction
func newEventRepositoryWithTx(tx queryable) *EventRepository {
	return &EventRepository{q: tx}
}

// Create inserts an event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (id, title, description, location, starts_at, host_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		event.ID,
		event.Title,
		event.Description,
		event.Location,
		event.StartsAt,
		event.HostID,
	).Scan(&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return storeError(err, "failed to create event %s", event.ID)
	}

	return nil
}

// ListByHost returns the events hosted by a user, soonest first
func (r *EventRepository) ListByHost(ctx context.Context, hostID string) ([]*models.Event, error) {
	query := `
		SELECT id, title, description, location, starts_at, host_id, created_at, updated_at
		FROM events
		WHERE host_id = $1
		ORDER BY starts_at, id
	`

	rows, err := r.q.Query(ctx, query, hostID)
	if err != nil {
		return nil, storeError(err, "failed to list events hosted by %s", hostID)
	}
	defer rows.Close()

	var hosted []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, storeError(err, "failed to scan event")
		}
		hosted = append(hosted, event)
	}

	if err := rows.Err(); err != nil {
		return nil, storeError(err, "failed to iterate events")
	}

	return hosted, nil
}

// Relation implements service.RelationMigrator
func (r *EventRepository) Relation() models.Relation {
	return hostedEvents.relation
}

// Plan implements service.RelationMigrator
func (r *EventRepository) Plan(ctx context.Context, fromUserID, toUserID string) (models.RelationCounts, error) {
	return hostedEvents.planCounts(ctx, r.q, fromUserID, toUserID)
}

// Migrate implements service.RelationMigrator
func (r *EventRepository) Migrate(ctx context.Context, fromUserID, toUserID string) (models.RelationCounts, error) {
	return hostedEvents.migrate(ctx, r.q, fromUserID, toUserID)
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var event models.Event
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Location,
		&event.StartsAt,
		&event.HostID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
