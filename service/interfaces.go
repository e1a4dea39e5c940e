package service

import (
	"context"

	"gamenight/events"
	"gamenight/models"
)

// UserRepository defines the interface for user record access
type UserRepository interface {
	// GetByID retrieves a user by primary key, returning nil when absent
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetBySubject retrieves the user whose id or external_subject_id equals subjectID.
	// A row keyed by the subject id wins over one that only carries it in external_subject_id.
	GetBySubject(ctx context.Context, subjectID string) (*models.User, error)

	// CreatePlaceholder inserts a minimal record keyed by subjectID.
	// Returns ErrConflict when a row for the subject already exists.
	CreatePlaceholder(ctx context.Context, subjectID string) (*models.User, error)

	// UpsertFromProvider writes authoritative provider fields for the subject,
	// creating the row if needed. The boolean reports whether a row was inserted.
	UpsertFromProvider(ctx context.Context, profile models.ProviderProfile) (*models.User, bool, error)

	// ClaimSubject sets external_subject_id on a row that does not have one yet, once no
	// other row is keyed by the subject
	ClaimSubject(ctx context.Context, userID, subjectID string) error

	// GetAll returns every user ordered by creation time
	GetAll(ctx context.Context) ([]*models.User, error)

	// Delete removes a user row. Returns false when the row was already gone.
	Delete(ctx context.Context, id string) (bool, error)
}

// RelationMigrator moves one dependent relation from a duplicate user onto a survivor.
// Relations with a per-user uniqueness constraint collapse rows the survivor already
// holds before re-pointing the rest.
type RelationMigrator interface {
	// Relation names the dependent table handled by this migrator
	Relation() models.Relation

	// Plan counts the rows Migrate would touch without changing anything
	Plan(ctx context.Context, fromUserID, toUserID string) (models.RelationCounts, error)

	// Migrate re-points or collapses the duplicate's rows onto the survivor
	Migrate(ctx context.Context, fromUserID, toUserID string) (models.RelationCounts, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	RelationMigrators() []RelationMigrator
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// IdentityResolver maps an authenticated subject id onto a canonical user id
type IdentityResolver interface {
	// Resolve returns the user id for subjectID, creating a placeholder record on first use
	Resolve(ctx context.Context, subjectID string) (string, error)

	// ResolveUser is Resolve returning the full record
	ResolveUser(ctx context.Context, subjectID string) (*models.User, error)
}

// NotificationService applies provider change notifications to the store
type NotificationService interface {
	// Apply upserts the event's subject. Unsupported event types are ignored.
	Apply(ctx context.Context, event *models.IdentityEvent) (*ApplyResult, error)
}

// ConsolidationService merges duplicate user records onto one survivor per subject
type ConsolidationService interface {
	// Run scans every user, merges duplicate groups and reports what happened.
	// An error is returned only when the initial scan fails.
	Run(ctx context.Context, opts ConsolidationOptions) (*ConsolidationReport, error)
}
