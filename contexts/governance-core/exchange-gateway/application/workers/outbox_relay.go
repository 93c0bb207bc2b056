package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"agora/contexts/governance-core/exchange-gateway/ports"
	"agora/internal/shared/events"
)

// OutboxRelay publishes persisted exchange outbox rows to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher events.Publisher
	Clock     ports.Clock
	BatchSize int
	Topic     string
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending outbox rows and marks each row
// published only after broker publish succeeds. It stops on the first failure
// so the retry loop can reprocess remaining rows safely.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}
	topic := r.Topic
	if topic == "" {
		topic = "exchange.events"
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("exchange outbox list failed",
			"event", "exchange_outbox_list_failed",
			"module", "governance-core/exchange-gateway",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		logger.Debug("exchange outbox relay found no pending rows",
			"event", "exchange_outbox_relay_noop",
			"module", "governance-core/exchange-gateway",
			"layer", "worker",
			"batch_size", limit,
		)
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, message := range pending {
		envelope := events.Outbound{
			EventID:       message.ID,
			EventType:     message.EventType,
			OccurredAtUTC: message.CreatedAt,
			EntityType:    "purchase",
			Payload:       message.Payload,
		}
		if entityID := resolveEntityID(message.Payload); entityID != "" {
			envelope.EntityID = entityID
		}
		if err := r.Publisher.Publish(ctx, topic, envelope); err != nil {
			logger.Error("exchange outbox publish failed",
				"event", "exchange_outbox_publish_failed",
				"module", "governance-core/exchange-gateway",
				"layer", "worker",
				"message_id", message.ID,
				"event_type", message.EventType,
				"error", err.Error(),
			)
			if markErr := r.Outbox.MarkOutboxFailed(ctx, message.ID); markErr != nil {
				return markErr
			}
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, message.ID, now); err != nil {
			return err
		}
		logger.Info("exchange event published",
			"event", "exchange_outbox_published",
			"module", "governance-core/exchange-gateway",
			"layer", "worker",
			"message_id", message.ID,
			"event_type", message.EventType,
		)
	}
	return nil
}

func resolveEntityID(payload []byte) string {
	var envelope struct {
		EntityID string `json:"entity_id"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return ""
	}
	return envelope.EntityID
}
