package fcmadapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	application "ticketops/contexts/event-ticketing/automation-service/application"
	"ticketops/contexts/event-ticketing/automation-service/domain/entities"
	domainerrors "ticketops/contexts/event-ticketing/automation-service/domain/errors"
	"ticketops/contexts/event-ticketing/automation-service/ports"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// maxMulticastTokens is the FCM per-request recipient cap.
const maxMulticastTokens = 500

type Config struct {
	ProjectID       string
	CredentialsFile string
}

type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type Gateway struct {
	client multicastSender
	logger *slog.Logger
}

// NewGateway builds a messaging client from application default credentials,
// or from CredentialsFile when set.
func NewGateway(ctx context.Context, cfg Config, logger *slog.Logger) (*Gateway, error) {
	opts := make([]option.ClientOption, 0, 1)
	if path := strings.TrimSpace(cfg.CredentialsFile); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}
	var appConfig *firebase.Config
	if projectID := strings.TrimSpace(cfg.ProjectID); projectID != "" {
		appConfig = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, appConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}
	return newGateway(client, logger), nil
}

func newGateway(client multicastSender, logger *slog.Logger) *Gateway {
	return &Gateway{
		client: client,
		logger: application.ResolveLogger(logger),
	}
}

func (g *Gateway) SendMulticast(ctx context.Context, message entities.PushMessage) (entities.MulticastResult, error) {
	if len(message.Tokens) == 0 {
		return entities.MulticastResult{}, domainerrors.ErrEmptyPushRecipients
	}

	result := entities.MulticastResult{}
	for start := 0; start < len(message.Tokens); start += maxMulticastTokens {
		end := min(start+maxMulticastTokens, len(message.Tokens))
		response, err := g.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: message.Tokens[start:end],
			Notification: &messaging.Notification{
				Title: message.Title,
				Body:  message.Body,
			},
			Data: message.Data,
		})
		if err != nil {
			g.logger.Error("fcm multicast request failed",
				"event", "fcm_send_multicast_failed",
				"module", application.ModuleName,
				"layer", "adapter",
				"token_count", end-start,
				"error", err.Error(),
			)
			return result, errors.Join(domainerrors.ErrGatewayUnavailable, err)
		}
		result.SuccessCount += response.SuccessCount
		result.FailureCount += response.FailureCount
		g.logRejections(response)
	}
	return result, nil
}

func (g *Gateway) logRejections(response *messaging.BatchResponse) {
	for index, item := range response.Responses {
		if item == nil || item.Success || item.Error == nil {
			continue
		}
		g.logger.Warn("fcm rejected recipient",
			"event", "fcm_recipient_rejected",
			"module", application.ModuleName,
			"layer", "adapter",
			"recipient_index", index,
			"unregistered", messaging.IsUnregistered(item.Error),
			"error", item.Error.Error(),
		)
	}
}

var _ ports.NotificationGateway = (*Gateway)(nil)
