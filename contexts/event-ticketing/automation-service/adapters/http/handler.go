package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "ticketops/contexts/event-ticketing/automation-service/application"
	"ticketops/contexts/event-ticketing/automation-service/application/commands"
	"ticketops/contexts/event-ticketing/automation-service/application/workers"
	domainerrors "ticketops/contexts/event-ticketing/automation-service/domain/errors"
	httptransport "ticketops/contexts/event-ticketing/automation-service/transport/http"
)

type Handler struct {
	EnqueueOrderUpdate commands.EnqueueOrderUpdateUseCase
	Notifier           workers.OrderNotifier
	Reconciler         workers.TicketExpiryReconciler
	Logger             *slog.Logger
}

// OrderUpdateHandler godoc
// @Summary Record an order update
// @Description Queues an order-changed signal; the worker relays it to the order notifier.
// @Tags event-ticketing-automation
// @Accept json
// @Produce json
// @Param X-Request-Id header string false "Request correlation id"
// @Param request body httptransport.OrderUpdateRequest true "Updated order"
// @Success 202 {object} httptransport.OrderUpdateAcceptedResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/order-updates [post]
func (h Handler) OrderUpdateHandler(
	ctx context.Context,
	traceID string,
	req httptransport.OrderUpdateRequest,
) (httptransport.OrderUpdateAcceptedResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	result, err := h.EnqueueOrderUpdate.Execute(ctx, commands.EnqueueOrderUpdateCommand{
		OrderID: req.OrderID,
		TraceID: strings.TrimSpace(traceID),
	})
	if err != nil {
		logger.Warn("automation http order update failed",
			"event", "automation_http_order_update_failed",
			"module", application.ModuleName,
			"layer", "transport",
			"order_id", strings.TrimSpace(req.OrderID),
			"error", err.Error(),
		)
		return httptransport.OrderUpdateAcceptedResponse{}, err
	}
	return httptransport.OrderUpdateAcceptedResponse{EventID: result.EventID}, nil
}

// NotifyOrderHandler godoc
// @Summary Replay the organizer notification for an order
// @Description Runs the order notifier synchronously and reports its outcome.
// @Tags event-ticketing-automation
// @Produce json
// @Param order_id path string true "Order id"
// @Success 200 {object} httptransport.NotifyOrderResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 502 {object} httptransport.ErrorResponse
// @Router /v1/orders/{order_id}/notify [post]
func (h Handler) NotifyOrderHandler(ctx context.Context, orderID string) (httptransport.NotifyOrderResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return httptransport.NotifyOrderResponse{}, domainerrors.ErrInvalidOrderUpdate
	}

	result, err := h.Notifier.Notify(ctx, orderID)
	response := httptransport.NotifyOrderResponse{
		OrderID:      result.OrderID,
		EventID:      result.EventID,
		OrganizerID:  result.OrganizerID,
		Outcome:      string(result.Outcome),
		SuccessCount: result.SuccessCount,
		FailureCount: result.FailureCount,
	}
	if err != nil {
		return response, err
	}
	logger.Info("automation http notify completed",
		"event", "automation_http_notify_completed",
		"module", application.ModuleName,
		"layer", "transport",
		"order_id", orderID,
		"outcome", response.Outcome,
	)
	return response, nil
}

// RunTicketExpiryHandler godoc
// @Summary Run ticket expiry now
// @Description Runs one reconciliation pass synchronously and returns its summary.
// @Tags event-ticketing-automation
// @Produce json
// @Success 200 {object} httptransport.ExpiryRunResponse
// @Failure 503 {object} httptransport.ErrorResponse
// @Router /v1/ticket-expiry/runs [post]
func (h Handler) RunTicketExpiryHandler(ctx context.Context) (httptransport.ExpiryRunResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	summary, err := h.Reconciler.RunOnce(ctx)
	response := httptransport.ExpiryRunResponse{
		RunID:          summary.RunID,
		Mode:           string(summary.Mode),
		StartedAt:      summary.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt:     summary.FinishedAt.UTC().Format(time.RFC3339),
		Scanned:        summary.Scanned,
		Expired:        summary.Expired,
		AlreadyExpired: summary.AlreadyExpired,
		NotDue:         summary.NotDue,
		Skipped:        summary.Skipped,
		Failed:         summary.Failed,
	}
	if err != nil {
		logger.Error("automation http expiry run failed",
			"event", "automation_http_expiry_run_failed",
			"module", application.ModuleName,
			"layer", "transport",
			"run_id", summary.RunID,
			"error", err.Error(),
		)
		return response, err
	}
	return response, nil
}
