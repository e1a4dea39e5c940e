package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gamenight/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnnouncer struct {
	mu        sync.Mutex
	announced []events.IdentityCreatedEvent
	err       error
}

func (a *fakeAnnouncer) AnnounceSignup(ctx context.Context, event events.IdentityCreatedEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.announced = append(a.announced, event)
	return a.err
}

type fakeForwarder struct {
	mu        sync.Mutex
	forwarded []events.EventType
}

func (f *fakeForwarder) Publish(event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forwarded = append(f.forwarded, event.Type())
	return nil
}

func waitForBus(t *testing.T, bus *events.Bus) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, bus.Wait(ctx))
}

func TestSubscribeAnnouncer(t *testing.T) {
	t.Run("announces created events only", func(t *testing.T) {
		bus := events.NewBus()
		announcer := &fakeAnnouncer{}
		SubscribeAnnouncer(bus, announcer)

		bus.Emit(context.Background(), events.IdentityUpdatedEvent{UserID: "user_1"})
		bus.Emit(context.Background(), events.IdentityCreatedEvent{UserID: "user_2", Name: "Ada"})
		waitForBus(t, bus)

		require.Len(t, announcer.announced, 1)
		assert.Equal(t, "user_2", announcer.announced[0].UserID)
	})

	t.Run("failures stay inside the subscriber", func(t *testing.T) {
		bus := events.NewBus()
		announcer := &fakeAnnouncer{err: errors.New("discord down")}
		SubscribeAnnouncer(bus, announcer)

		assert.NotPanics(t, func() {
			bus.Emit(context.Background(), events.IdentityCreatedEvent{UserID: "user_3"})
			waitForBus(t, bus)
		})
		assert.Len(t, announcer.announced, 1)
	})
}

func TestSubscribeForwarder(t *testing.T) {
	bus := events.NewBus()
	forwarder := &fakeForwarder{}
	SubscribeForwarder(bus, forwarder)
	SubscribeAuditLog(bus)

	bus.Emit(context.Background(), events.IdentityPlaceholderCreatedEvent{UserID: "user_1", SubjectID: "user_1"})
	bus.Emit(context.Background(), events.IdentityConsolidatedEvent{SurvivorID: "B", DuplicateID: "A"})
	waitForBus(t, bus)

	assert.ElementsMatch(t, []events.EventType{
		events.EventTypeIdentityPlaceholderCreated,
		events.EventTypeIdentityConsolidated,
	}, forwarder.forwarded)
}
