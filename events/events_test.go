package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"gamenight/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventDelivery tests the flow from TransactionalBus to the main Bus
func TestEventDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan IdentityCreatedEvent, 1)
	mainBus.Subscribe(EventTypeIdentityCreated, func(ctx context.Context, event Event) {
		if created, ok := event.(IdentityCreatedEvent); ok {
			received <- created
		} else {
			t.Errorf("Expected IdentityCreatedEvent, got %T", event)
		}
	})

	testEvent := IdentityCreatedEvent{
		UserID: "user_2abc",
		Email:  "alice@example.com",
		Name:   "Alice",
	}

	transactionalBus.Publish(testEvent)
	assert.Equal(t, 1, transactionalBus.Pending())

	transactionalBus.Flush(context.Background())
	assert.Equal(t, 0, transactionalBus.Pending())

	select {
	case got := <-received:
		assert.Equal(t, testEvent, got)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestMultipleEventsDelivery tests delivering several events of different types
func TestMultipleEventsDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	var mu sync.Mutex
	seen := make(map[EventType]int)
	record := func(ctx context.Context, event Event) {
		mu.Lock()
		defer mu.Unlock()
		seen[event.Type()]++
	}

	mainBus.Subscribe(EventTypeIdentityCreated, record)
	mainBus.Subscribe(EventTypeIdentityUpdated, record)
	mainBus.Subscribe(EventTypeIdentityConsolidated, record)

	transactionalBus.Publish(IdentityCreatedEvent{UserID: "u1"})
	transactionalBus.Publish(IdentityUpdatedEvent{UserID: "u1"})
	transactionalBus.Publish(IdentityConsolidatedEvent{
		SubjectKey:  "u1",
		SurvivorID:  "u1",
		DuplicateID: "legacy-1",
		Counts: map[models.Relation]models.RelationCounts{
			models.RelationHostedEvents: {Moved: 1},
		},
	})
	transactionalBus.Flush(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, mainBus.Wait(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, seen[EventTypeIdentityCreated])
	assert.Equal(t, 1, seen[EventTypeIdentityUpdated])
	assert.Equal(t, 1, seen[EventTypeIdentityConsolidated])
}

// TestTransactionalBusDiscard tests that discarded events are not delivered
func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan bool, 1)
	mainBus.Subscribe(EventTypeIdentityCreated, func(ctx context.Context, event Event) {
		eventReceived <- true
	})

	transactionalBus.Publish(IdentityCreatedEvent{UserID: "user_2abc"})
	transactionalBus.Discard()
	transactionalBus.Flush(context.Background())

	select {
	case <-eventReceived:
		t.Fatal("Event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
	}
}

// TestBusRecoversFromPanickingHandler checks a panicking subscriber does not take down the emitter
func TestBusRecoversFromPanickingHandler(t *testing.T) {
	bus := NewBus()

	delivered := make(chan struct{}, 1)
	bus.Subscribe(EventTypeIdentityUpdated, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeIdentityUpdated, func(ctx context.Context, event Event) {
		delivered <- struct{}{}
	})

	bus.Emit(context.Background(), IdentityUpdatedEvent{UserID: "u1"})

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("second handler was not called")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, bus.Wait(ctx))
}

// TestFlushDetachesFromRequestContext checks subscribers still run after the request is cancelled
func TestFlushDetachesFromRequestContext(t *testing.T) {
	bus := NewBus()
	tb := NewTransactionalBus(bus)

	errs := make(chan error, 1)
	bus.Subscribe(EventTypeIdentityCreated, func(ctx context.Context, event Event) {
		errs <- ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	tb.Publish(IdentityCreatedEvent{UserID: "u1"})
	tb.Flush(ctx)
	cancel()

	select {
	case err := <-errs:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}
}
