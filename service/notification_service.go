package service

import (
	"context"
	"fmt"

	"gamenight/events"
	"gamenight/models"
	"gamenight/observability"

	log "github.com/sirupsen/logrus"
)

// ApplyResult describes what a notification did to the store
type ApplyResult struct {
	// Type is the normalized event type, empty when the event was ignored
	Type models.IdentityEventType

	// Ignored is true for event types this service does not handle
	Ignored bool

	// User is the record after the upsert
	User *models.User

	// Inserted is true when the upsert created the row
	Inserted bool
}

// notificationService implements the NotificationService interface
type notificationService struct {
	uowFactory UnitOfWorkFactory
}

// NewNotificationService creates a new notification service
func NewNotificationService(uowFactory UnitOfWorkFactory) NotificationService {
	return &notificationService{
		uowFactory: uowFactory,
	}
}

// Apply writes the provider's authoritative profile for the event's subject.
// Re-delivery of the same event is idempotent; no ordering between events is enforced.
func (s *notificationService) Apply(ctx context.Context, event *models.IdentityEvent) (*ApplyResult, error) {
	metrics := observability.GetMetrics()

	eventType, ok := event.NormalizedType()
	if !ok {
		log.WithField("event_type", event.Type).Info("Ignoring unsupported identity event type")
		metrics.RecordWebhookEvent(event.Type, observability.OutcomeIgnored)
		return &ApplyResult{Ignored: true}, nil
	}

	profile := event.Profile()
	if profile.SubjectID == "" {
		metrics.RecordWebhookEvent(string(eventType), observability.OutcomeRejected)
		return nil, fmt.Errorf("%w: %s without subject id", ErrInvalidEvent, eventType)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		metrics.RecordWebhookEvent(string(eventType), observability.OutcomeFailed)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	user, inserted, err := uow.UserRepository().UpsertFromProvider(ctx, profile)
	if err != nil {
		metrics.RecordWebhookEvent(string(eventType), observability.OutcomeFailed)
		return nil, fmt.Errorf("failed to apply %s for %s: %w", eventType, profile.SubjectID, err)
	}

	if eventType == models.IdentityEventCreated {
		uow.EventBus().Publish(events.IdentityCreatedEvent{
			UserID:      user.ID,
			Email:       user.Email,
			Name:        user.Name,
			Avatar:      user.Avatar,
			RowInserted: inserted,
		})
	} else {
		uow.EventBus().Publish(events.IdentityUpdatedEvent{
			UserID: user.ID,
			Email:  user.Email,
			Name:   user.Name,
		})
	}

	if err := uow.Commit(); err != nil {
		metrics.RecordWebhookEvent(string(eventType), observability.OutcomeFailed)
		return nil, fmt.Errorf("failed to commit %s for %s: %w", eventType, profile.SubjectID, err)
	}

	log.WithFields(log.Fields{
		"event_type": eventType,
		"user_id":    user.ID,
		"inserted":   inserted,
	}).Info("Applied identity event")
	metrics.RecordWebhookEvent(string(eventType), observability.OutcomeApplied)

	return &ApplyResult{
		Type:     eventType,
		User:     user,
		Inserted: inserted,
	}, nil
}
