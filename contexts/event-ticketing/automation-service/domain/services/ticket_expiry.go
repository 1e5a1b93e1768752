package services

import (
	"time"

	"ticketops/contexts/event-ticketing/automation-service/domain/entities"
)

type ExpiryDecision string

const (
	ExpiryDecisionExpire         ExpiryDecision = "expire"
	ExpiryDecisionAlreadyExpired ExpiryDecision = "already_expired"
	ExpiryDecisionNotDue         ExpiryDecision = "not_due"
)

// EvaluateTicketExpiry decides the forward-only expiry transition.
// Expired tickets are never revisited, whatever the event date says.
func EvaluateTicketExpiry(ticket entities.Ticket, event entities.Event, now time.Time) ExpiryDecision {
	if ticket.IsExpired() {
		return ExpiryDecisionAlreadyExpired
	}
	if event.HasPassed(now) {
		return ExpiryDecisionExpire
	}
	return ExpiryDecisionNotDue
}
