package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	application "ticketops/contexts/event-ticketing/automation-service/application"
	"ticketops/contexts/event-ticketing/automation-service/domain/entities"
	domainerrors "ticketops/contexts/event-ticketing/automation-service/domain/errors"
	"ticketops/contexts/event-ticketing/automation-service/ports"
	"ticketops/internal/shared/outbox"
)

// Seed is the initial Record Store content.
type Seed struct {
	Orders     []entities.Order
	Events     []entities.Event
	Organizers []entities.Organizer
	Tickets    []entities.Ticket
}

type notificationMark struct {
	eventID    string
	reservedAt time.Time
}

// Store is an in-memory Record Store for local runtime and tests.
// It is not intended as production persistence.
type Store struct {
	mu            sync.RWMutex
	orders        map[string]entities.Order
	events        map[string]entities.Event
	organizers    map[string]entities.Organizer
	tickets       map[string]entities.Ticket
	notifications map[string]notificationMark
	outbox        map[string]ports.OutboxMessage
	outboxOrder   []string
	outboxSent    map[string]time.Time
	sequence      uint64
	now           func() time.Time
	logger        *slog.Logger
}

func NewStore(seed Seed, logger *slog.Logger) *Store {
	s := &Store{
		orders:        make(map[string]entities.Order, len(seed.Orders)),
		events:        make(map[string]entities.Event, len(seed.Events)),
		organizers:    make(map[string]entities.Organizer, len(seed.Organizers)),
		tickets:       make(map[string]entities.Ticket, len(seed.Tickets)),
		notifications: make(map[string]notificationMark),
		outbox:        make(map[string]ports.OutboxMessage),
		outboxSent:    make(map[string]time.Time),
		now:           func() time.Time { return time.Now().UTC() },
		logger:        application.ResolveLogger(logger),
	}
	for _, order := range seed.Orders {
		s.orders[order.OrderID] = order
	}
	for _, event := range seed.Events {
		s.events[event.EventID] = event
	}
	for _, organizer := range seed.Organizers {
		s.organizers[organizer.OrganizerID] = organizer
	}
	for _, ticket := range seed.Tickets {
		s.tickets[ticket.TicketID] = ticket
	}
	return s
}

// SetNow overrides the store's server clock.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) PutOrder(order entities.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.OrderID] = order
}

func (s *Store) PutOrganizer(organizer entities.Organizer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organizers[organizer.OrganizerID] = organizer
}

func (s *Store) GetOrder(_ context.Context, orderID string) (entities.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[orderID]
	if !ok {
		return entities.Order{}, domainerrors.ErrOrderNotFound
	}
	return order, nil
}

func (s *Store) GetEvent(_ context.Context, eventID string) (entities.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[eventID]
	if !ok {
		return entities.Event{}, domainerrors.ErrEventNotFound
	}
	return event, nil
}

func (s *Store) GetOrganizer(_ context.Context, organizerID string) (entities.Organizer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	organizer, ok := s.organizers[organizerID]
	if !ok {
		return entities.Organizer{}, domainerrors.ErrOrganizerNotFound
	}
	return organizer, nil
}

func (s *Store) GetTicket(_ context.Context, ticketID string) (entities.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, ok := s.tickets[ticketID]
	if !ok {
		return entities.Ticket{}, domainerrors.ErrTicketNotFound
	}
	return ticket, nil
}

func (s *Store) ListTickets(_ context.Context, cursor string, limit int) (ports.TicketPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.pageLocked(cursor, limit, func(entities.Ticket) bool { return true }), nil
}

func (s *Store) ListExpiryCandidates(
	_ context.Context,
	since time.Time,
	now time.Time,
	cursor string,
	limit int,
) (ports.TicketPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.pageLocked(cursor, limit, func(ticket entities.Ticket) bool {
		if ticket.IsExpired() {
			return false
		}
		event, ok := s.events[ticket.EventID]
		if !ok {
			return false
		}
		return !event.Date.Before(since) && event.Date.Before(now)
	}), nil
}

func (s *Store) ExpireTicket(_ context.Context, ticketID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[ticketID]
	if !ok {
		return false, domainerrors.ErrTicketNotFound
	}
	if ticket.IsExpired() {
		return false, nil
	}
	ticket.Status = entities.TicketStatusExpired
	ticket.UpdatedAt = s.now().UTC()
	s.tickets[ticketID] = ticket

	s.logger.Debug("ticket expired in memory store",
		"event", "memory_expire_ticket",
		"module", application.ModuleName,
		"layer", "adapter",
		"ticket_id", ticketID,
	)
	return true, nil
}

func (s *Store) ReserveOrderNotification(_ context.Context, orderID string, eventID string, reservedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[orderID]; ok {
		return true, nil
	}
	s.notifications[orderID] = notificationMark{eventID: eventID, reservedAt: reservedAt.UTC()}
	return false, nil
}

func (s *Store) ReleaseOrderNotification(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.notifications, orderID)
	return nil
}

// IsOrderNotified reports whether a notification marker exists for orderID.
func (s *Store) IsOrderNotified(orderID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.notifications[orderID]
	return ok
}

func (s *Store) EnqueueOrderUpdate(_ context.Context, message ports.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.outbox[message.OutboxID]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	message.Status = outbox.StatusPending
	message.Payload = append([]byte(nil), message.Payload...)
	s.outbox[message.OutboxID] = message
	s.outboxOrder = append(s.outboxOrder, message.OutboxID)
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	messages := make([]ports.OutboxMessage, 0, limit)
	for _, id := range s.outboxOrder {
		msg, ok := s.outbox[id]
		if !ok || msg.Status != outbox.StatusPending {
			continue
		}
		messages = append(messages, msg)
		if len(messages) >= limit {
			break
		}
	}
	return messages, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.outbox[outboxID]
	if !ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	msg.Status = outbox.StatusSent
	s.outbox[outboxID] = msg
	s.outboxSent[outboxID] = sentAt.UTC()
	return nil
}

func (s *Store) MarkOutboxFailed(_ context.Context, outboxID string, reason string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.outbox[outboxID]
	if !ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	msg.Status = outbox.StatusFailed
	msg.LastError = reason
	s.outbox[outboxID] = msg
	return nil
}

// OutboxMessages returns every outbox row in insertion order.
func (s *Store) OutboxMessages() []ports.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0, len(s.outboxOrder))
	for _, id := range s.outboxOrder {
		if msg, ok := s.outbox[id]; ok {
			items = append(items, msg)
		}
	}
	return items
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	value := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("mem-%d", value), nil
}

// pageLocked applies keyset pagination over ticket ids; callers hold mu.
func (s *Store) pageLocked(cursor string, limit int, keep func(entities.Ticket) bool) ports.TicketPage {
	if limit <= 0 {
		limit = 200
	}
	ids := make([]string, 0, len(s.tickets))
	for id, ticket := range s.tickets {
		if id <= cursor {
			continue
		}
		if !keep(ticket) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	page := ports.TicketPage{}
	if len(ids) > limit {
		ids = ids[:limit]
		page.NextCursor = ids[len(ids)-1]
	}
	page.Items = make([]entities.Ticket, 0, len(ids))
	for _, id := range ids {
		page.Items = append(page.Items, s.tickets[id])
	}
	return page
}
