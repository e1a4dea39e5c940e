package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gamenight/events"
	"gamenight/observability"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const sourceService = "gamenight"

// natsConn is the slice of *nats.Conn used for publishing
type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Envelope wraps every event published to NATS
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// NATSPublisher forwards identity events to NATS for other services
type NATSPublisher struct {
	conn          natsConn
	subjectPrefix string
}

// ConnectNATS dials the NATS servers with reconnect handling
func ConnectNATS(servers string) (*nats.Conn, error) {
	nc, err := nats.Connect(servers,
		nats.Name(sourceService),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.WithField("servers", servers).Info("Connected to NATS")
	return nc, nil
}

// NewNATSPublisher creates a publisher writing under subjectPrefix
func NewNATSPublisher(conn natsConn, subjectPrefix string) *NATSPublisher {
	return &NATSPublisher{
		conn:          conn,
		subjectPrefix: strings.TrimSuffix(subjectPrefix, "."),
	}
}

// Subject maps an event to its NATS subject
func (p *NATSPublisher) Subject(event events.Event) string {
	var suffix string
	switch event.Type() {
	case events.EventTypeIdentityPlaceholderCreated:
		suffix = "placeholder_created"
	case events.EventTypeIdentityCreated:
		suffix = "created"
	case events.EventTypeIdentityUpdated:
		suffix = "updated"
	case events.EventTypeIdentityConsolidated:
		suffix = "consolidated"
	default:
		suffix = "unknown." + string(event.Type())
	}
	return p.subjectPrefix + "." + suffix
}

// Publish sends event wrapped in an Envelope
func (p *NATSPublisher) Publish(event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := Envelope{
		EventID:       uuid.NewString(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := p.Subject(event)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	observability.GetMetrics().RecordNATSMessagePublished(string(event.Type()))
	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Published event to NATS")

	return nil
}

// Close drains pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
