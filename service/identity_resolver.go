package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gamenight/events"
	"gamenight/models"
	"gamenight/observability"

	log "github.com/sirupsen/logrus"
)

// resolveAttempts bounds the read-insert-reread cycle. A conflict means another writer
// committed the row, so the second attempt always finds it unless it was deleted in between.
const resolveAttempts = 2

// identityResolver implements the IdentityResolver interface
type identityResolver struct {
	uowFactory UnitOfWorkFactory
}

// NewIdentityResolver creates a new identity resolver
func NewIdentityResolver(uowFactory UnitOfWorkFactory) IdentityResolver {
	return &identityResolver{
		uowFactory: uowFactory,
	}
}

// Resolve returns the canonical user id for subjectID
func (s *identityResolver) Resolve(ctx context.Context, subjectID string) (string, error) {
	user, err := s.ResolveUser(ctx, subjectID)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// ResolveUser returns the user record for subjectID, creating a placeholder on first use.
// Existing fields are never overwritten.
func (s *identityResolver) ResolveUser(ctx context.Context, subjectID string) (*models.User, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, ErrUnauthenticated
	}

	metrics := observability.GetMetrics()

	var lastErr error
	for attempt := 1; attempt <= resolveAttempts; attempt++ {
		user, created, err := s.resolveOnce(ctx, subjectID)
		if err == nil {
			switch {
			case created:
				metrics.RecordResolution(observability.OutcomeCreated)
			case attempt > 1:
				metrics.RecordResolution(observability.OutcomeConflict)
			default:
				metrics.RecordResolution(observability.OutcomeFound)
			}
			return user, nil
		}

		if !errors.Is(err, ErrConflict) {
			metrics.RecordResolution(observability.OutcomeError)
			return nil, err
		}

		// Another request created the row between our lookup and insert
		log.WithFields(log.Fields{
			"subject_id": subjectID,
			"attempt":    attempt,
		}).Debug("Placeholder insert lost the race, re-reading")
		lastErr = err
	}

	metrics.RecordResolution(observability.OutcomeError)
	return nil, fmt.Errorf("subject %s conflicted on insert but no row was found: %w", subjectID, lastErr)
}

// resolveOnce runs one lookup-then-insert cycle in its own transaction
func (s *identityResolver) resolveOnce(ctx context.Context, subjectID string) (*models.User, bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	user, err := uow.UserRepository().GetBySubject(ctx, subjectID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up subject: %w", err)
	}
	if user != nil {
		return user, false, nil
	}

	user, err = uow.UserRepository().CreatePlaceholder(ctx, subjectID)
	if err != nil {
		return nil, false, err
	}

	uow.EventBus().Publish(events.IdentityPlaceholderCreatedEvent{
		UserID:    user.ID,
		SubjectID: subjectID,
	})

	if err := uow.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit placeholder: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":    user.ID,
		"subject_id": subjectID,
	}).Info("Created placeholder user on first use")

	return user, true, nil
}
