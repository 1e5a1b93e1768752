package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	application "ticketops/contexts/event-ticketing/automation-service/application"
	domainerrors "ticketops/contexts/event-ticketing/automation-service/domain/errors"
	"ticketops/contexts/event-ticketing/automation-service/domain/services"
	"ticketops/contexts/event-ticketing/automation-service/ports"
)

const (
	defaultOrderUpdatesTopic   = "orders.updated"
	defaultNotifyConsumerGroup = "order-notifier-cg"
)

type NotifyOutcome string

const (
	NotifyOutcomeDispatched       NotifyOutcome = "dispatched"
	NotifyOutcomeOrderMissing     NotifyOutcome = "order_missing"
	NotifyOutcomeNotSuccess       NotifyOutcome = "not_success"
	NotifyOutcomeEventMissing     NotifyOutcome = "event_missing"
	NotifyOutcomeOrganizerMissing NotifyOutcome = "organizer_missing"
	NotifyOutcomeNoToken          NotifyOutcome = "no_token"
	NotifyOutcomeAlreadyNotified  NotifyOutcome = "already_notified"
	NotifyOutcomeFailed           NotifyOutcome = "failed"
)

type NotifyResult struct {
	OrderID      string
	EventID      string
	OrganizerID  string
	Outcome      NotifyOutcome
	SuccessCount int
	FailureCount int
}

// OrderNotifier pushes a message to the event organizer when an order
// update lands in the success state. Ledger is optional; without it a
// redelivered update can notify twice.
type OrderNotifier struct {
	Subscriber    ports.EventSubscriber
	Orders        ports.OrderRepository
	Events        ports.EventRepository
	Organizers    ports.OrganizerRepository
	Gateway       ports.NotificationGateway
	Ledger        ports.NotificationLedger
	Clock         ports.Clock
	Metrics       ports.AutomationMetrics
	Topic         string
	ConsumerGroup string
	Logger        *slog.Logger
}

type orderUpdatedPayload struct {
	OrderID string `json:"order_id"`
}

func (n OrderNotifier) Start(ctx context.Context) error {
	logger := application.ResolveLogger(n.Logger)
	topic := n.Topic
	if topic == "" {
		topic = defaultOrderUpdatesTopic
	}
	group := n.ConsumerGroup
	if group == "" {
		group = defaultNotifyConsumerGroup
	}

	if err := n.Subscriber.Subscribe(ctx, topic, group, n.Handle); err != nil {
		logger.Error("order notifier subscribe failed",
			"event", "order_notifier_subscribe_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"topic", topic,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("order notifier subscribed",
		"event", "order_notifier_subscribed",
		"module", application.ModuleName,
		"layer", "worker",
		"topic", topic,
		"consumer_group", group,
		"dedup_enabled", n.Ledger != nil,
	)
	return nil
}

// Handle is the bus callback. Only an undecodable envelope is returned as an
// error; every processing failure is logged by Notify and absorbed here.
func (n OrderNotifier) Handle(ctx context.Context, event ports.EventEnvelope) error {
	var payload orderUpdatedPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode order update payload: %w", err)
	}
	if strings.TrimSpace(payload.OrderID) == "" {
		return domainerrors.ErrInvalidOrderUpdate
	}
	_, _ = n.Notify(ctx, payload.OrderID)
	return nil
}

// Notify walks order -> event -> organizer and dispatches at most one push.
// The returned error is set only for infrastructure failures.
func (n OrderNotifier) Notify(ctx context.Context, orderID string) (NotifyResult, error) {
	logger := application.ResolveLogger(n.Logger).With(
		"module", application.ModuleName,
		"layer", "worker",
		"order_id", orderID,
	)
	metrics := application.ResolveMetrics(n.Metrics)
	result := NotifyResult{OrderID: orderID}
	finish := func(outcome NotifyOutcome, err error) (NotifyResult, error) {
		result.Outcome = outcome
		metrics.ObserveNotification(string(outcome), result.SuccessCount, result.FailureCount)
		return result, err
	}

	order, err := n.Orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrOrderNotFound) {
			logger.Warn("order not found for update",
				"event", "order_notifier_order_missing",
			)
			return finish(NotifyOutcomeOrderMissing, nil)
		}
		logger.Error("order lookup failed",
			"event", "order_notifier_order_lookup_failed",
			"error", err.Error(),
		)
		return finish(NotifyOutcomeFailed, err)
	}
	result.EventID = order.EventID

	if !order.IsCompletedPurchase() {
		logger.Debug("order update is not a completed purchase",
			"event", "order_notifier_not_success",
			"status", string(order.Status),
		)
		return finish(NotifyOutcomeNotSuccess, nil)
	}

	event, err := n.Events.GetEvent(ctx, order.EventID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrEventNotFound) {
			logger.Warn("event not found for order",
				"event", "order_notifier_event_missing",
				"event_id", order.EventID,
			)
			return finish(NotifyOutcomeEventMissing, nil)
		}
		logger.Error("event lookup failed",
			"event", "order_notifier_event_lookup_failed",
			"event_id", order.EventID,
			"error", err.Error(),
		)
		return finish(NotifyOutcomeFailed, err)
	}
	result.OrganizerID = event.OrganizerID

	organizer, err := n.Organizers.GetOrganizer(ctx, event.OrganizerID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrOrganizerNotFound) {
			logger.Warn("organizer not found for event",
				"event", "order_notifier_organizer_missing",
				"event_id", event.EventID,
				"organizer_id", event.OrganizerID,
			)
			return finish(NotifyOutcomeOrganizerMissing, nil)
		}
		logger.Error("organizer lookup failed",
			"event", "order_notifier_organizer_lookup_failed",
			"event_id", event.EventID,
			"organizer_id", event.OrganizerID,
			"error", err.Error(),
		)
		return finish(NotifyOutcomeFailed, err)
	}

	if !organizer.HasPushToken() {
		logger.Debug("organizer has no push token",
			"event", "order_notifier_no_token",
			"organizer_id", organizer.OrganizerID,
		)
		return finish(NotifyOutcomeNoToken, nil)
	}

	message, err := services.BuildOrderNotification(organizer, event)
	if err != nil {
		return finish(NotifyOutcomeNoToken, nil)
	}

	if n.Ledger != nil {
		alreadyNotified, err := n.Ledger.ReserveOrderNotification(ctx, order.OrderID, event.EventID, application.ResolveNow(n.Clock))
		if err != nil {
			logger.Error("order notification reservation failed",
				"event", "order_notifier_reserve_failed",
				"error", err.Error(),
			)
			return finish(NotifyOutcomeFailed, err)
		}
		if alreadyNotified {
			logger.Info("order already notified",
				"event", "order_notifier_already_notified",
				"event_id", event.EventID,
			)
			return finish(NotifyOutcomeAlreadyNotified, nil)
		}
	}

	sent, err := n.Gateway.SendMulticast(ctx, message)
	if err != nil {
		logger.Error("order notification dispatch failed",
			"event", "order_notifier_dispatch_failed",
			"event_id", event.EventID,
			"organizer_id", organizer.OrganizerID,
			"error", err.Error(),
		)
		n.release(ctx, logger, order.OrderID)
		return finish(NotifyOutcomeFailed, err)
	}
	result.SuccessCount = sent.SuccessCount
	result.FailureCount = sent.FailureCount

	logger.Info("order notification dispatched",
		"event", "order_notifier_dispatched",
		"event_id", event.EventID,
		"organizer_id", organizer.OrganizerID,
		"success_count", sent.SuccessCount,
		"failure_count", sent.FailureCount,
	)
	return finish(NotifyOutcomeDispatched, nil)
}

// release frees the ledger marker after a transport failure so a redelivered
// update can dispatch again.
func (n OrderNotifier) release(ctx context.Context, logger *slog.Logger, orderID string) {
	if n.Ledger == nil {
		return
	}
	// The dispatch may have failed because ctx was cancelled; the marker must
	// still go or every redelivery is suppressed.
	if err := n.Ledger.ReleaseOrderNotification(context.WithoutCancel(ctx), orderID); err != nil {
		logger.Error("order notification release failed",
			"event", "order_notifier_release_failed",
			"error", err.Error(),
		)
	}
}
