package events

import (
	"context"
	"time"
)

// Envelope is the shared event shape used in Agora.
// Align fields with repository canonical event contract.
type Envelope struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	SourceService  string    `json:"source_service"`
	OccurredAtUTC  time.Time `json:"occurred_at_utc"`
	CorrelationID  string    `json:"correlation_id"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id"`
	PayloadVersion int       `json:"payload_version"`
	Payload        any       `json:"payload"`
}

// Outbound is the wire shape outbox relays hand to the event bus. The
// payload carries the marshaled Envelope.
type Outbound struct {
	EventID       string
	EventType     string
	OccurredAtUTC time.Time
	EntityType    string
	EntityID      string
	Payload       []byte
}

// Publisher is the event bus surface shared by the module relays.
type Publisher interface {
	Publish(ctx context.Context, topic string, event Outbound) error
}
