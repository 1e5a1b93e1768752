package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"ticketops/contexts/event-ticketing/automation-service/domain/entities"
	domainerrors "ticketops/contexts/event-ticketing/automation-service/domain/errors"
	"ticketops/contexts/event-ticketing/automation-service/ports"
	"ticketops/internal/shared/outbox"
)

func TestStoreListTicketsPagesByID(t *testing.T) {
	store := NewStore(Seed{Tickets: []entities.Ticket{
		{TicketID: "t3", EventID: "e1"},
		{TicketID: "t1", EventID: "e1"},
		{TicketID: "t2", EventID: "e1"},
	}}, nil)

	first, err := store.ListTickets(context.Background(), "", 2)
	if err != nil {
		t.Fatalf("list first page failed: %v", err)
	}
	if len(first.Items) != 2 || first.Items[0].TicketID != "t1" || first.Items[1].TicketID != "t2" {
		t.Fatalf("unexpected first page %+v", first.Items)
	}
	if first.NextCursor != "t2" {
		t.Fatalf("expected cursor t2, got %q", first.NextCursor)
	}

	second, err := store.ListTickets(context.Background(), first.NextCursor, 2)
	if err != nil {
		t.Fatalf("list second page failed: %v", err)
	}
	if len(second.Items) != 1 || second.Items[0].TicketID != "t3" {
		t.Fatalf("unexpected second page %+v", second.Items)
	}
	if second.NextCursor != "" {
		t.Fatalf("expected last page, got cursor %q", second.NextCursor)
	}
}

func TestStoreListExpiryCandidatesFiltersByWindow(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	store := NewStore(Seed{
		Events: []entities.Event{
			{EventID: "recent", Date: now.Add(-time.Hour)},
			{EventID: "ancient", Date: now.Add(-90 * 24 * time.Hour)},
			{EventID: "future", Date: now.Add(time.Hour)},
		},
		Tickets: []entities.Ticket{
			{TicketID: "t-recent", EventID: "recent", Status: entities.TicketStatusActive},
			{TicketID: "t-recent-expired", EventID: "recent", Status: entities.TicketStatusExpired},
			{TicketID: "t-ancient", EventID: "ancient", Status: entities.TicketStatusActive},
			{TicketID: "t-future", EventID: "future", Status: entities.TicketStatusActive},
			{TicketID: "t-orphan", EventID: "missing", Status: entities.TicketStatusActive},
		},
	}, nil)

	page, err := store.ListExpiryCandidates(context.Background(), now.Add(-30*24*time.Hour), now, "", 10)
	if err != nil {
		t.Fatalf("list candidates failed: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].TicketID != "t-recent" {
		t.Fatalf("expected only t-recent, got %+v", page.Items)
	}
}

func TestStoreExpireTicketIsMonotonic(t *testing.T) {
	stamp := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	store := NewStore(Seed{Tickets: []entities.Ticket{
		{TicketID: "t1", EventID: "e1", Status: entities.TicketStatusActive},
	}}, nil)
	store.SetNow(func() time.Time { return stamp })

	changed, err := store.ExpireTicket(context.Background(), "t1")
	if err != nil || !changed {
		t.Fatalf("expected first expiry to change ticket, changed=%v err=%v", changed, err)
	}
	ticket, _ := store.GetTicket(context.Background(), "t1")
	if ticket.Status != entities.TicketStatusExpired || !ticket.UpdatedAt.Equal(stamp) {
		t.Fatalf("unexpected ticket after expiry %+v", ticket)
	}

	store.SetNow(func() time.Time { return stamp.Add(time.Hour) })
	changed, err = store.ExpireTicket(context.Background(), "t1")
	if err != nil || changed {
		t.Fatalf("expected second expiry to be a no-op, changed=%v err=%v", changed, err)
	}
	ticket, _ = store.GetTicket(context.Background(), "t1")
	if !ticket.UpdatedAt.Equal(stamp) {
		t.Fatalf("no-op expiry must not restamp updatedAt, got %s", ticket.UpdatedAt)
	}

	if _, err := store.ExpireTicket(context.Background(), "missing"); !errors.Is(err, domainerrors.ErrTicketNotFound) {
		t.Fatalf("expected ticket not found, got %v", err)
	}
}

func TestStoreNotificationLedger(t *testing.T) {
	store := NewStore(Seed{}, nil)
	ctx := context.Background()

	already, err := store.ReserveOrderNotification(ctx, "o1", "e1", time.Now())
	if err != nil || already {
		t.Fatalf("first reservation should be fresh, already=%v err=%v", already, err)
	}
	already, _ = store.ReserveOrderNotification(ctx, "o1", "e1", time.Now())
	if !already {
		t.Fatalf("second reservation should report already notified")
	}
	if err := store.ReleaseOrderNotification(ctx, "o1"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if store.IsOrderNotified("o1") {
		t.Fatalf("expected marker to be released")
	}
}

func TestStoreOutboxLifecycle(t *testing.T) {
	store := NewStore(Seed{}, nil)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := store.EnqueueOrderUpdate(ctx, ports.OutboxMessage{OutboxID: id, Payload: []byte(`{}`)}); err != nil {
			t.Fatalf("enqueue %s failed: %v", id, err)
		}
	}
	if err := store.EnqueueOrderUpdate(ctx, ports.OutboxMessage{OutboxID: "a"}); !errors.Is(err, domainerrors.ErrRepositoryInvariantBroke) {
		t.Fatalf("expected duplicate outbox id error, got %v", err)
	}

	if err := store.MarkOutboxSent(ctx, "a", time.Now()); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	pending, _ := store.ListPendingOutbox(ctx, 10)
	if len(pending) != 1 || pending[0].OutboxID != "b" {
		t.Fatalf("expected only b pending, got %+v", pending)
	}
	if got := store.OutboxMessages()[0].Status; got != outbox.StatusSent {
		t.Fatalf("expected a marked sent, got %s", got)
	}
}

func TestGatewayCountsRejectedTokens(t *testing.T) {
	gateway := NewGateway(nil)
	gateway.RejectToken("bad")

	result, err := gateway.SendMulticast(context.Background(), entities.PushMessage{
		Tokens: []string{"good", "bad"},
		Title:  "t",
		Data:   map[string]string{"eventID": "e1"},
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if result.SuccessCount != 1 || result.FailureCount != 1 {
		t.Fatalf("unexpected counts %+v", result)
	}
	if sent := gateway.Sent(); len(sent) != 1 || sent[0].Data["eventID"] != "e1" {
		t.Fatalf("unexpected recorded pushes %+v", sent)
	}
}
