package service

import (
	"context"

	"gamenight/events"
	"gamenight/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetBySubject(ctx context.Context, subjectID string) (*models.User, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) CreatePlaceholder(ctx context.Context, subjectID string) (*models.User, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpsertFromProvider(ctx context.Context, profile models.ProviderProfile) (*models.User, bool, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockUserRepository) ClaimSubject(ctx context.Context, userID, subjectID string) error {
	args := m.Called(ctx, userID, subjectID)
	return args.Error(0)
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockRelationMigrator is a mock implementation of RelationMigrator for one relation
type MockRelationMigrator struct {
	mock.Mock
	relation models.Relation
}

// NewMockRelationMigrator creates a migrator mock reporting the given relation
func NewMockRelationMigrator(relation models.Relation) *MockRelationMigrator {
	return &MockRelationMigrator{relation: relation}
}

func (m *MockRelationMigrator) Relation() models.Relation {
	return m.relation
}

func (m *MockRelationMigrator) Plan(ctx context.Context, fromUserID, toUserID string) (models.RelationCounts, error) {
	args := m.Called(ctx, fromUserID, toUserID)
	return args.Get(0).(models.RelationCounts), args.Error(1)
}

func (m *MockRelationMigrator) Migrate(ctx context.Context, fromUserID, toUserID string) (models.RelationCounts, error) {
	args := m.Called(ctx, fromUserID, toUserID)
	return args.Get(0).(models.RelationCounts), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork.
// Repository getters return the mocks it was built with.
type MockUnitOfWork struct {
	mock.Mock
	UserRepo  *MockUserRepository
	Migrators []*MockRelationMigrator
	Events    *MockEventPublisher
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.UserRepo
}

func (m *MockUnitOfWork) RelationMigrators() []RelationMigrator {
	migrators := make([]RelationMigrator, len(m.Migrators))
	for i, migrator := range m.Migrators {
		migrators[i] = migrator
	}
	return migrators
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.Events
}

// MockUnitOfWorkFactory hands out the same MockUnitOfWork for every Create call
type MockUnitOfWorkFactory struct {
	UnitOfWork *MockUnitOfWork
	Created    int
}

func (f *MockUnitOfWorkFactory) Create() UnitOfWork {
	f.Created++
	return f.UnitOfWork
}
