package service

import (
	"testing"

	"gamenight/models"

	"github.com/stretchr/testify/mock"
)

// Test subject ids
const (
	TestSubject1 = "user_2aXkP1"
	TestSubject2 = "user_2bYlQ2"
)

// TestMocks holds all mocks for easy access
type TestMocks struct {
	UserRepo       *MockUserRepository
	Migrators      map[models.Relation]*MockRelationMigrator
	EventPublisher *MockEventPublisher
	UnitOfWork     *MockUnitOfWork
	Factory        *MockUnitOfWorkFactory
}

// NewTestMocks creates a new set of mocks wired into one unit of work.
// Begin and Rollback succeed by default.
func NewTestMocks() *TestMocks {
	m := &TestMocks{
		UserRepo:       new(MockUserRepository),
		Migrators:      make(map[models.Relation]*MockRelationMigrator),
		EventPublisher: new(MockEventPublisher),
	}

	var migrators []*MockRelationMigrator
	for _, relation := range models.Relations {
		migrator := NewMockRelationMigrator(relation)
		m.Migrators[relation] = migrator
		migrators = append(migrators, migrator)
	}

	m.UnitOfWork = &MockUnitOfWork{
		UserRepo:  m.UserRepo,
		Migrators: migrators,
		Events:    m.EventPublisher,
	}
	m.Factory = &MockUnitOfWorkFactory{UnitOfWork: m.UnitOfWork}

	m.UnitOfWork.On("Begin", mock.Anything).Return(nil).Maybe()
	m.UnitOfWork.On("Rollback").Return(nil).Maybe()

	return m
}

// AssertAllExpectations asserts all mock expectations
func (m *TestMocks) AssertAllExpectations(t *testing.T) {
	m.UserRepo.AssertExpectations(t)
	for _, migrator := range m.Migrators {
		migrator.AssertExpectations(t)
	}
	m.EventPublisher.AssertExpectations(t)
	m.UnitOfWork.AssertExpectations(t)
}

func strPtr(s string) *string {
	return &s
}

func placeholderUser(subject string) *models.User {
	return &models.User{
		ID:                subject,
		ExternalSubjectID: strPtr(subject),
		Email:             models.PlaceholderEmail(subject),
		Name:              models.DefaultUserName,
	}
}
