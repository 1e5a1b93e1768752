package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	application "ticketops/contexts/event-ticketing/automation-service/application"
	"ticketops/contexts/event-ticketing/automation-service/ports"
)

// OrderUpdateRelay drains the order update outbox onto the bus. Rows are
// marked sent only after publish, so delivery is at-least-once.
type OrderUpdateRelay struct {
	Outbox    ports.OrderUpdateOutbox
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Topic     string
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce relays one batch and returns how many rows were sent. A row that can
// never be published is parked as failed and the batch moves on; a publish
// failure stops the batch so later rows keep their order behind it.
func (r OrderUpdateRelay) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}
	topic := r.Topic
	if topic == "" {
		topic = defaultOrderUpdatesTopic
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("order update outbox list failed",
			"event", "order_update_outbox_list_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}

	sent := 0
	for _, message := range pending {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			logger.Error("order update outbox payload decode failed",
				"event", "order_update_outbox_decode_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			if markErr := r.Outbox.MarkOutboxFailed(ctx, message.OutboxID, err.Error(), application.ResolveNow(r.Clock)); markErr != nil {
				logger.Error("order update outbox mark failed failed",
					"event", "order_update_outbox_mark_failed_failed",
					"module", application.ModuleName,
					"layer", "worker",
					"outbox_id", message.OutboxID,
					"error", markErr.Error(),
				)
				return sent, markErr
			}
			continue
		}

		if err := r.Publisher.Publish(ctx, topic, envelope); err != nil {
			logger.Error("order update publish failed",
				"event", "order_update_outbox_publish_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"event_id", envelope.EventID,
				"event_type", envelope.EventType,
				"error", err.Error(),
			)
			return sent, err
		}
		if err := r.Outbox.MarkOutboxSent(ctx, message.OutboxID, application.ResolveNow(r.Clock)); err != nil {
			logger.Error("order update outbox mark sent failed",
				"event", "order_update_outbox_mark_sent_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			return sent, err
		}
		sent++
	}

	if sent > 0 {
		logger.Info("order update relay cycle completed",
			"event", "order_update_outbox_relay_completed",
			"module", application.ModuleName,
			"layer", "worker",
			"topic", topic,
			"sent_count", sent,
		)
	}
	return sent, nil
}
