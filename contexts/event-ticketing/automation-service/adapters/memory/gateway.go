package memory

import (
	"context"
	"log/slog"
	"sync"

	application "ticketops/contexts/event-ticketing/automation-service/application"
	"ticketops/contexts/event-ticketing/automation-service/domain/entities"
	domainerrors "ticketops/contexts/event-ticketing/automation-service/domain/errors"
)

// Gateway records multicast pushes instead of delivering them. Tokens listed
// in rejected count as per-recipient failures; Err fails the whole call.
type Gateway struct {
	mu       sync.Mutex
	sent     []entities.PushMessage
	rejected map[string]struct{}
	err      error
	logger   *slog.Logger
}

func NewGateway(logger *slog.Logger) *Gateway {
	return &Gateway{
		rejected: make(map[string]struct{}),
		logger:   application.ResolveLogger(logger),
	}
}

func (g *Gateway) RejectToken(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rejected[token] = struct{}{}
}

func (g *Gateway) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

func (g *Gateway) SendMulticast(_ context.Context, message entities.PushMessage) (entities.MulticastResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.err != nil {
		return entities.MulticastResult{}, g.err
	}
	if len(message.Tokens) == 0 {
		return entities.MulticastResult{}, domainerrors.ErrEmptyPushRecipients
	}

	result := entities.MulticastResult{}
	for _, token := range message.Tokens {
		if _, rejected := g.rejected[token]; rejected {
			result.FailureCount++
			continue
		}
		result.SuccessCount++
	}
	g.sent = append(g.sent, clonePush(message))

	g.logger.Info("push recorded by memory gateway",
		"event", "memory_gateway_send_multicast",
		"module", application.ModuleName,
		"layer", "adapter",
		"title", message.Title,
		"success_count", result.SuccessCount,
		"failure_count", result.FailureCount,
	)
	return result, nil
}

// Sent returns copies of every recorded push in dispatch order.
func (g *Gateway) Sent() []entities.PushMessage {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]entities.PushMessage, 0, len(g.sent))
	for _, message := range g.sent {
		out = append(out, clonePush(message))
	}
	return out
}

func clonePush(message entities.PushMessage) entities.PushMessage {
	data := make(map[string]string, len(message.Data))
	for key, value := range message.Data {
		data[key] = value
	}
	return entities.PushMessage{
		Tokens: append([]string(nil), message.Tokens...),
		Title:  message.Title,
		Body:   message.Body,
		Data:   data,
	}
}
