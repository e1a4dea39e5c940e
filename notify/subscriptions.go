package notify

import (
	"context"

	"gamenight/events"
	"gamenight/observability"

	log "github.com/sirupsen/logrus"
)

// SignupAnnouncer posts a human-facing message for a new signup
type SignupAnnouncer interface {
	AnnounceSignup(ctx context.Context, event events.IdentityCreatedEvent) error
}

// EventForwarder hands events to another transport
type EventForwarder interface {
	Publish(event events.Event) error
}

// identityEventTypes lists every event forwarded to other services
var identityEventTypes = []events.EventType{
	events.EventTypeIdentityPlaceholderCreated,
	events.EventTypeIdentityCreated,
	events.EventTypeIdentityUpdated,
	events.EventTypeIdentityConsolidated,
}

// SubscribeAnnouncer announces identity.created events. Failures are logged and never
// reach the code that emitted the event.
func SubscribeAnnouncer(bus *events.Bus, announcer SignupAnnouncer) {
	bus.Subscribe(events.EventTypeIdentityCreated, func(ctx context.Context, event events.Event) {
		created, ok := event.(events.IdentityCreatedEvent)
		if !ok {
			return
		}

		metrics := observability.GetMetrics()
		if err := announcer.AnnounceSignup(ctx, created); err != nil {
			log.WithFields(log.Fields{
				"user_id": created.UserID,
				"error":   err,
			}).Error("Failed to announce signup")
			metrics.RecordAnnouncement(observability.OutcomeFailed)
			return
		}

		log.WithField("user_id", created.UserID).Info("Announced signup")
		metrics.RecordAnnouncement(observability.OutcomeSent)
	})
}

// SubscribeForwarder forwards every identity event
func SubscribeForwarder(bus *events.Bus, forwarder EventForwarder) {
	for _, eventType := range identityEventTypes {
		bus.Subscribe(eventType, func(ctx context.Context, event events.Event) {
			if err := forwarder.Publish(event); err != nil {
				log.WithFields(log.Fields{
					"eventType": event.Type(),
					"error":     err,
				}).Error("Failed to forward identity event")
			}
		})
	}
}

// SubscribeAuditLog logs every identity event at info level
func SubscribeAuditLog(bus *events.Bus) {
	for _, eventType := range identityEventTypes {
		bus.Subscribe(eventType, func(ctx context.Context, event events.Event) {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"event":     event,
			}).Info("Identity event")
		})
	}
}
