package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	application "ticketops/contexts/event-ticketing/automation-service/application"
	domainerrors "ticketops/contexts/event-ticketing/automation-service/domain/errors"
	"ticketops/contexts/event-ticketing/automation-service/ports"
	"ticketops/internal/shared/events"
	"ticketops/internal/shared/outbox"
)

const sourceService = "ticketops-automation"

type EnqueueOrderUpdateCommand struct {
	OrderID string
	TraceID string
}

type EnqueueOrderUpdateResult struct {
	EventID string
}

// EnqueueOrderUpdateUseCase records an "order changed" signal in the outbox;
// the worker relay turns it into a bus event for the notifier.
type EnqueueOrderUpdateUseCase struct {
	Outbox      ports.OrderUpdateOutbox
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (uc EnqueueOrderUpdateUseCase) Execute(ctx context.Context, cmd EnqueueOrderUpdateCommand) (EnqueueOrderUpdateResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return EnqueueOrderUpdateResult{}, domainerrors.ErrInvalidOrderUpdate
	}

	eventID, err := uc.IDGenerator.NewID(ctx)
	if err != nil {
		return EnqueueOrderUpdateResult{}, err
	}
	now := application.ResolveNow(uc.Clock)

	data, err := json.Marshal(events.OrderUpdated{OrderID: orderID})
	if err != nil {
		return EnqueueOrderUpdateResult{}, err
	}
	payload, err := json.Marshal(events.Envelope{
		EventID:          eventID,
		EventType:        events.EventTypeOrderUpdated,
		OccurredAt:       now,
		SourceService:    sourceService,
		TraceID:          cmd.TraceID,
		SchemaVersion:    1,
		PartitionKeyPath: "order_id",
		PartitionKey:     orderID,
		Data:             data,
	})
	if err != nil {
		return EnqueueOrderUpdateResult{}, err
	}

	if err := uc.Outbox.EnqueueOrderUpdate(ctx, ports.OutboxMessage{
		OutboxID:     eventID,
		EventType:    events.EventTypeOrderUpdated,
		PartitionKey: orderID,
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    now,
	}); err != nil {
		logger.Error("order update enqueue failed",
			"event", "order_update_enqueue_failed",
			"module", application.ModuleName,
			"layer", "application",
			"order_id", orderID,
			"error", err.Error(),
		)
		return EnqueueOrderUpdateResult{}, err
	}

	logger.Info("order update enqueued",
		"event", "order_update_enqueued",
		"module", application.ModuleName,
		"layer", "application",
		"order_id", orderID,
		"event_id", eventID,
	)
	return EnqueueOrderUpdateResult{EventID: eventID}, nil
}
