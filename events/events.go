package events

import (
	"context"
	"sync"

	"gamenight/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeIdentityPlaceholderCreated EventType = "identity_placeholder_created"
	EventTypeIdentityCreated            EventType = "identity_created"
	EventTypeIdentityUpdated            EventType = "identity_updated"
	EventTypeIdentityConsolidated       EventType = "identity_consolidated"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// IdentityPlaceholderCreatedEvent is emitted when the resolver creates a record on first use
type IdentityPlaceholderCreatedEvent struct {
	UserID    string `json:"user_id"`
	SubjectID string `json:"subject_id"`
}

func (e IdentityPlaceholderCreatedEvent) Type() EventType {
	return EventTypeIdentityPlaceholderCreated
}

// IdentityCreatedEvent is emitted when the provider reports a new signup
type IdentityCreatedEvent struct {
	UserID      string  `json:"user_id"`
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	Avatar      *string `json:"avatar,omitempty"`
	RowInserted bool    `json:"row_inserted"`
}

func (e IdentityCreatedEvent) Type() EventType {
	return EventTypeIdentityCreated
}

// IdentityUpdatedEvent is emitted when provider profile fields were applied to a record
type IdentityUpdatedEvent struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func (e IdentityUpdatedEvent) Type() EventType {
	return EventTypeIdentityUpdated
}

// IdentityConsolidatedEvent is emitted after a duplicate record was merged into a survivor
type IdentityConsolidatedEvent struct {
	SubjectKey  string                                    `json:"subject_key"`
	SurvivorID  string                                    `json:"survivor_id"`
	DuplicateID string                                    `json:"duplicate_id"`
	Counts      map[models.Relation]models.RelationCounts `json:"counts"`
}

func (e IdentityConsolidatedEvent) Type() EventType {
	return EventTypeIdentityConsolidated
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	inflight sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers.
// Handlers run on their own goroutines so a slow subscriber never blocks the emitter.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		b.inflight.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started by Emit has returned or ctx is done
func (b *Bus) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TransactionalBus holds events raised inside a unit of work until it commits.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Flush is called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	if b.real == nil {
		b.pending = nil
		return
	}

	// Subscribers outlive the request, so they get a detached context
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of events waiting for Flush
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
