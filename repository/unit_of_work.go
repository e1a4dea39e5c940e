package repository

import (
	"context"
	"errors"
	"fmt"

	"gamenight/database"
	"gamenight/events"
	"gamenight/models"
	"gamenight/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	userRepo         service.UserRepository
	migrators        []service.RelationMigrator
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return storeError(err, "failed to begin transaction")
	}

	u.tx = tx
	u.ctx = ctx

	u.userRepo = newUserRepositoryWithTx(tx)
	u.migrators = newRelationMigratorsWithTx(tx)

	return nil
}

// newRelationMigratorsWithTx returns one migrator per dependent relation in models.Relations order
func newRelationMigratorsWithTx(tx queryable) []service.RelationMigrator {
	byRelation := map[models.Relation]service.RelationMigrator{}
	for _, m := range []service.RelationMigrator{
		newGameRepositoryWithTx(tx),
		newEventAttendeeRepositoryWithTx(tx),
		newEventRepositoryWithTx(tx),
		newPlaySessionRepositoryWithTx(tx),
	} {
		byRelation[m.Relation()] = m
	}

	var migrators []service.RelationMigrator
	for _, relation := range models.Relations {
		migrators = append(migrators, byRelation[relation])
	}
	return migrators
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	u.tx = nil
	if err != nil {
		u.transactionalBus.Discard()
		return storeError(err, "failed to commit transaction")
	}

	// Flush pending events after successful commit
	u.transactionalBus.Flush(u.ctx)

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	// The request context may already be done; the rollback must still reach the server
	err := u.tx.Rollback(context.WithoutCancel(u.ctx))
	u.tx = nil
	u.transactionalBus.Discard()

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

// RelationMigrators returns the dependent relation migrators for this unit of work
func (u *unitOfWork) RelationMigrators() []service.RelationMigrator {
	if u.migrators == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.migrators
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
