package services

import (
	"fmt"
	"strings"

	"ticketops/contexts/event-ticketing/automation-service/domain/entities"
	domainerrors "ticketops/contexts/event-ticketing/automation-service/domain/errors"
)

// DataKeyEventID carries the event id for client-side deep links.
const DataKeyEventID = "eventID"

// BuildOrderNotification renders the organizer push for a completed order.
func BuildOrderNotification(organizer entities.Organizer, event entities.Event) (entities.PushMessage, error) {
	tokens := NormalizeTokens([]string{organizer.FCMToken})
	if len(tokens) == 0 {
		return entities.PushMessage{}, domainerrors.ErrEmptyPushRecipients
	}
	return entities.PushMessage{
		Tokens: tokens,
		Title:  fmt.Sprintf("New order of %s", organizer.Name),
		Body:   fmt.Sprintf("Your event %s has a new order.", event.Name),
		Data: map[string]string{
			DataKeyEventID: event.EventID,
		},
	}, nil
}

// NormalizeTokens trims, drops blanks and de-duplicates while keeping order.
func NormalizeTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		value := strings.TrimSpace(token)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
