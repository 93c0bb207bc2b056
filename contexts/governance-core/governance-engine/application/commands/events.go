package commands

import (
	"encoding/json"
	"strconv"
	"time"

	"agora/contexts/governance-core/governance-engine/ports"
	"agora/internal/shared/events"
)

const (
	eventTypeProposalCreated  = "proposal.created"
	eventTypeVoteCast         = "vote.cast"
	eventTypeProposalExecuted = "proposal.executed"

	outboxStatusPending = "pending"
)

// newGovernanceOutbox wraps a payload in the canonical envelope and returns
// the pending outbox row persisted next to the state change.
func newGovernanceOutbox(
	eventID string,
	eventType string,
	proposalID uint64,
	occurredAt time.Time,
	data map[string]any,
) (ports.OutboxMessage, error) {
	envelope := events.Envelope{
		EventID:        eventID,
		EventType:      eventType,
		SourceService:  "agora",
		OccurredAtUTC:  occurredAt.UTC(),
		EntityType:     "proposal",
		EntityID:       strconv.FormatUint(proposalID, 10),
		PayloadVersion: 1,
		Payload:        data,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	return ports.OutboxMessage{
		ID:        eventID,
		EventType: eventType,
		Payload:   payload,
		Status:    outboxStatusPending,
		CreatedAt: occurredAt.UTC(),
	}, nil
}
