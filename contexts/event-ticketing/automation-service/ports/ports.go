package ports

import (
	"context"
	"time"

	"ticketops/contexts/event-ticketing/automation-service/domain/entities"
	"ticketops/internal/shared/events"
	"ticketops/internal/shared/outbox"
)

// OrderRepository reads orders. Missing rows return ErrOrderNotFound.
type OrderRepository interface {
	GetOrder(ctx context.Context, orderID string) (entities.Order, error)
}

// EventRepository reads events. Missing rows return ErrEventNotFound.
type EventRepository interface {
	GetEvent(ctx context.Context, eventID string) (entities.Event, error)
}

// OrganizerRepository reads organizers. Missing rows return ErrOrganizerNotFound.
type OrganizerRepository interface {
	GetOrganizer(ctx context.Context, organizerID string) (entities.Organizer, error)
}

// TicketPage is one keyset page of the ticket collection.
type TicketPage struct {
	Items      []entities.Ticket
	NextCursor string
}

// TicketRepository owns the ticket scan and the expiry write path.
type TicketRepository interface {
	// ListTickets pages through every ticket ordered by ticket id; an empty
	// NextCursor marks the last page.
	ListTickets(ctx context.Context, cursor string, limit int) (TicketPage, error)
	// ListExpiryCandidates returns non-expired tickets whose event date falls
	// in [since, now), ordered by ticket id after cursor.
	ListExpiryCandidates(ctx context.Context, since time.Time, now time.Time, cursor string, limit int) (TicketPage, error)
	// ExpireTicket sets status Expired and stamps updated_at with the store's
	// own clock. It reports false when the ticket was already expired.
	ExpireTicket(ctx context.Context, ticketID string) (bool, error)
}

// NotificationGateway delivers best-effort multicast pushes.
type NotificationGateway interface {
	SendMulticast(ctx context.Context, message entities.PushMessage) (entities.MulticastResult, error)
}

// NotificationLedger records which orders already produced an organizer push.
type NotificationLedger interface {
	// ReserveOrderNotification returns true when the order was already reserved.
	ReserveOrderNotification(ctx context.Context, orderID string, eventID string, reservedAt time.Time) (bool, error)
	ReleaseOrderNotification(ctx context.Context, orderID string) error
}

type OutboxMessage = outbox.Message

// OrderUpdateOutbox is the feed of order mutations awaiting relay.
type OrderUpdateOutbox interface {
	EnqueueOrderUpdate(ctx context.Context, message OutboxMessage) error
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
	MarkOutboxFailed(ctx context.Context, outboxID string, reason string, failedAt time.Time) error
}

// Clock allows deterministic testing of expiry rules.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts event/run identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventEnvelope reuses the canonical envelope contract.
type EventEnvelope = events.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// EventSubscriber registers a topic consumer callback.
type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// AutomationMetrics receives notifier and reconciler outcomes.
type AutomationMetrics interface {
	ObserveNotification(outcome string, successCount int, failureCount int)
	ObserveTicketOutcome(outcome string)
	ObserveExpiryRun(duration time.Duration)
}
