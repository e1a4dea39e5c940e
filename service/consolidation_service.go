package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gamenight/events"
	"gamenight/models"
	"gamenight/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const defaultSubjectIDPrefix = "user_"

// consolidationService implements the ConsolidationService interface
type consolidationService struct {
	uowFactory UnitOfWorkFactory
}

// NewConsolidationService creates a new consolidation service
func NewConsolidationService(uowFactory UnitOfWorkFactory) ConsolidationService {
	return &consolidationService{
		uowFactory: uowFactory,
	}
}

// mergeItem is one queued duplicate to fold into its group's survivor
type mergeItem struct {
	group     *GroupReport
	duplicate *models.User
}

// Run scans all users, groups them by subject key and merges each duplicate into the
// group's survivor, one transaction per duplicate.
func (s *consolidationService) Run(ctx context.Context, opts ConsolidationOptions) (*ConsolidationReport, error) {
	subjectIDPrefix := defaultSubjectIDPrefix
	if opts.SubjectIDPrefix != nil {
		subjectIDPrefix = *opts.SubjectIDPrefix
	}

	report := &ConsolidationReport{
		RunID:     uuid.NewString(),
		DryRun:    opts.DryRun,
		StartedAt: time.Now().UTC(),
	}
	logger := log.WithFields(log.Fields{
		"run_id":  report.RunID,
		"dry_run": opts.DryRun,
	})

	users, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	report.UsersScanned = len(users)

	groups, ungroupable := GroupBySubject(users, subjectIDPrefix)
	report.Ungroupable = ungroupable

	queue := s.buildQueue(report, groups, opts.DryRun)
	report.QueueLength = len(queue)

	logger.WithFields(log.Fields{
		"users":     report.UsersScanned,
		"groups":    len(report.Groups),
		"ambiguous": len(report.Ambiguous),
		"queued":    report.QueueLength,
	}).Info("Starting consolidation")

	metrics := observability.GetMetrics()
	for report.Cursor < len(queue) {
		if ctx.Err() != nil {
			report.Interrupted = true
			logger.WithField("cursor", report.Cursor).Warn("Consolidation interrupted")
			break
		}

		item := queue[report.Cursor]
		outcome := s.mergeDuplicate(ctx, item, opts.DryRun)
		item.group.Duplicates = append(item.group.Duplicates, outcome)
		report.Cursor++

		entry := logger.WithFields(log.Fields{
			"subject_key":  item.group.SubjectKey,
			"survivor_id":  item.group.SurvivorID,
			"duplicate_id": outcome.UserID,
		})
		if outcome.Failed() {
			entry.WithError(outcome.Err).Error("Failed to merge duplicate user")
			metrics.RecordConsolidatedDuplicate(observability.OutcomeFailed, opts.DryRun)
			continue
		}
		entry.Debug("Merged duplicate user")
		metrics.RecordConsolidatedDuplicate(observability.OutcomeMerged, opts.DryRun)
	}

	report.FinishedAt = time.Now().UTC()
	logger.WithFields(log.Fields{
		"merged":   report.Merged(),
		"failed":   len(report.Failures()),
		"duration": report.FinishedAt.Sub(report.StartedAt),
	}).Info("Consolidation finished")

	return report, nil
}

// scan reads every user in one short transaction
func (s *consolidationService) scan(ctx context.Context) ([]*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin scan: %w", err)
	}
	defer uow.Rollback()

	users, err := uow.UserRepository().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan users: %w", err)
	}
	return users, nil
}

// buildQueue picks survivors, records ambiguous groups and queues every duplicate
func (s *consolidationService) buildQueue(report *ConsolidationReport, groups []SubjectGroup, dryRun bool) []mergeItem {
	var queue []mergeItem
	metrics := observability.GetMetrics()

	for _, group := range groups {
		if len(group.Users) < 2 {
			continue
		}

		survivor, err := SelectSurvivor(group.Users)
		if err != nil {
			ids := make([]string, len(group.Users))
			for i, u := range group.Users {
				ids[i] = u.ID
			}
			report.Ambiguous = append(report.Ambiguous, AmbiguousGroup{
				SubjectKey: group.Key,
				UserIDs:    ids,
				Reason:     err.Error(),
			})
			log.WithFields(log.Fields{
				"subject_key": group.Key,
				"user_ids":    ids,
			}).Warn("Skipping ambiguous duplicate group")
			metrics.RecordAmbiguousGroup(dryRun)
			continue
		}

		gr := &GroupReport{
			SubjectKey: group.Key,
			SurvivorID: survivor.ID,
		}
		report.Groups = append(report.Groups, gr)

		for _, u := range group.Users {
			if u.ID == survivor.ID {
				continue
			}
			queue = append(queue, mergeItem{group: gr, duplicate: u})
		}
	}

	return queue
}

// mergeDuplicate moves every dependent row of one duplicate onto the survivor and deletes it
func (s *consolidationService) mergeDuplicate(ctx context.Context, item mergeItem, dryRun bool) *DuplicateOutcome {
	dup := item.duplicate
	survivorID := item.group.SurvivorID
	outcome := &DuplicateOutcome{
		UserID: dup.ID,
		Email:  dup.Email,
		Counts: make(map[models.Relation]models.RelationCounts, len(models.Relations)),
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		outcome.Err = fmt.Errorf("failed to begin transaction: %w", err)
		return outcome
	}
	defer uow.Rollback() // No-op if already committed

	for _, migrator := range uow.RelationMigrators() {
		var counts models.RelationCounts
		var err error
		if dryRun {
			counts, err = migrator.Plan(ctx, dup.ID, survivorID)
		} else {
			counts, err = migrator.Migrate(ctx, dup.ID, survivorID)
		}
		if err != nil {
			outcome.Err = fmt.Errorf("failed to migrate %s: %w", migrator.Relation(), err)
			return outcome
		}
		outcome.Counts[migrator.Relation()] = counts
	}

	if dryRun {
		return outcome
	}

	deleted, err := uow.UserRepository().Delete(ctx, dup.ID)
	if err != nil {
		outcome.Err = fmt.Errorf("failed to delete duplicate: %w", err)
		return outcome
	}
	outcome.Deleted = deleted

	// Record the key on the survivor so future lookups by subject land on it
	if err := uow.UserRepository().ClaimSubject(ctx, survivorID, item.group.SubjectKey); err != nil {
		outcome.Err = fmt.Errorf("failed to claim subject for survivor: %w", err)
		return outcome
	}

	uow.EventBus().Publish(events.IdentityConsolidatedEvent{
		SubjectKey:  item.group.SubjectKey,
		SurvivorID:  survivorID,
		DuplicateID: dup.ID,
		Counts:      outcome.Counts,
	})

	if err := uow.Commit(); err != nil {
		outcome.Deleted = false
		outcome.Err = fmt.Errorf("failed to commit merge: %w", err)
		return outcome
	}

	return outcome
}

// SubjectGroup is the set of user records sharing one subject key
type SubjectGroup struct {
	Key   string
	Users []*models.User
}

// SubjectKey derives the provider subject a record belongs to: the explicit
// external_subject_id, else the subject encoded in a placeholder email, else the id
// itself when it carries subjectIDPrefix. An empty prefix accepts any id.
func SubjectKey(user *models.User, subjectIDPrefix string) (string, bool) {
	if subject := user.SubjectID(); subject != "" {
		return subject, true
	}
	if subject, ok := models.SubjectFromPlaceholderEmail(user.Email); ok {
		return subject, true
	}
	if strings.HasPrefix(user.ID, subjectIDPrefix) && len(user.ID) > len(subjectIDPrefix) {
		return user.ID, true
	}
	return "", false
}

// GroupBySubject buckets users by subject key, in key order. Users keep their input
// order within a group. The second result counts users with no derivable key.
func GroupBySubject(users []*models.User, subjectIDPrefix string) ([]SubjectGroup, int) {
	byKey := make(map[string][]*models.User)
	ungroupable := 0

	for _, u := range users {
		key, ok := SubjectKey(u, subjectIDPrefix)
		if !ok {
			ungroupable++
			continue
		}
		byKey[key] = append(byKey[key], u)
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]SubjectGroup, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, SubjectGroup{Key: key, Users: byKey[key]})
	}
	return groups, ungroupable
}

// SelectSurvivor returns the single record carrying real provider data.
// Groups with zero or several such records wrap ErrAmbiguous.
func SelectSurvivor(users []*models.User) (*models.User, error) {
	var survivor *models.User
	withData := 0
	for _, u := range users {
		if u.IsPlaceholder() {
			continue
		}
		withData++
		survivor = u
	}

	switch withData {
	case 1:
		return survivor, nil
	case 0:
		return nil, fmt.Errorf("%w: %d records, none with provider data", ErrAmbiguous, len(users))
	default:
		return nil, fmt.Errorf("%w: %d records with provider data", ErrAmbiguous, withData)
	}
}
