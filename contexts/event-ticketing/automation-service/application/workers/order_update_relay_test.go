package workers_test

import (
	"context"
	"errors"
	"testing"

	"ticketops/contexts/event-ticketing/automation-service/adapters/memory"
	"ticketops/contexts/event-ticketing/automation-service/application/commands"
	"ticketops/contexts/event-ticketing/automation-service/application/workers"
	"ticketops/contexts/event-ticketing/automation-service/ports"
	"ticketops/internal/shared/events"
	"ticketops/internal/shared/outbox"
)

type capturePublisher struct {
	topics []string
	events []ports.EventEnvelope
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func enqueue(t *testing.T, store *memory.Store, orderID string) string {
	t.Helper()
	result, err := commands.EnqueueOrderUpdateUseCase{
		Outbox:      store,
		Clock:       store,
		IDGenerator: store,
	}.Execute(context.Background(), commands.EnqueueOrderUpdateCommand{OrderID: orderID})
	if err != nil {
		t.Fatalf("enqueue %s failed: %v", orderID, err)
	}
	return result.EventID
}

func TestOrderUpdateRelayPublishesAndMarksSent(t *testing.T) {
	store := memory.NewStore(memory.Seed{}, nil)
	firstID := enqueue(t, store, "o1")
	enqueue(t, store, "o2")
	publisher := &capturePublisher{}

	sent, err := workers.OrderUpdateRelay{Outbox: store, Publisher: publisher, Clock: store}.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	if sent != 2 {
		t.Fatalf("expected 2 relayed, got %d", sent)
	}
	if publisher.topics[0] != events.TopicOrderUpdates {
		t.Fatalf("unexpected topic %s", publisher.topics[0])
	}
	first := publisher.events[0]
	if first.EventID != firstID || first.EventType != events.EventTypeOrderUpdated || first.PartitionKey != "o1" {
		t.Fatalf("unexpected envelope %+v", first)
	}

	pending, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 0 {
		t.Fatalf("expected outbox drained, got %d pending", len(pending))
	}
}

func TestOrderUpdateRelayKeepsRowsOnPublishFailure(t *testing.T) {
	store := memory.NewStore(memory.Seed{}, nil)
	enqueue(t, store, "o1")

	sent, err := workers.OrderUpdateRelay{
		Outbox:    store,
		Publisher: &capturePublisher{err: errors.New("broker down")},
		Clock:     store,
	}.RunOnce(context.Background())
	if err == nil || sent != 0 {
		t.Fatalf("expected publish failure, sent=%d err=%v", sent, err)
	}
	pending, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 1 {
		t.Fatalf("expected row to stay pending for retry, got %d", len(pending))
	}
}

func TestRelayedUpdateReachesNotifier(t *testing.T) {
	store := memory.NewStore(notifierSeed(), nil)
	gateway := memory.NewGateway(nil)
	subscriber := &stubSubscriber{}
	notifier := newNotifier(store, gateway)
	notifier.Subscriber = subscriber
	if err := notifier.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	enqueue(t, store, "o1")
	publisher := &capturePublisher{}
	if _, err := (workers.OrderUpdateRelay{Outbox: store, Publisher: publisher, Clock: store}).RunOnce(context.Background()); err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	for _, event := range publisher.events {
		if err := subscriber.handler(context.Background(), event); err != nil {
			t.Fatalf("handler failed: %v", err)
		}
	}
	if len(gateway.Sent()) != 1 {
		t.Fatalf("expected relayed update to notify once, got %d", len(gateway.Sent()))
	}
}

func TestOrderUpdateRelayParksUndecodableRowAndContinues(t *testing.T) {
	store := memory.NewStore(memory.Seed{}, nil)
	if err := store.EnqueueOrderUpdate(context.Background(), ports.OutboxMessage{
		OutboxID: "bad",
		Payload:  []byte("not json"),
	}); err != nil {
		t.Fatalf("enqueue bad row: %v", err)
	}
	validID := enqueue(t, store, "o1")
	publisher := &capturePublisher{}
	relay := workers.OrderUpdateRelay{Outbox: store, Publisher: publisher, Clock: store}

	sent, err := relay.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	if sent != 1 || len(publisher.events) != 1 || publisher.events[0].EventID != validID {
		t.Fatalf("expected valid row published past the bad one, sent=%d events=%+v", sent, publisher.events)
	}

	pending, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows, got %+v", pending)
	}
	rows := store.OutboxMessages()
	if rows[0].OutboxID != "bad" || rows[0].Status != outbox.StatusFailed || rows[0].LastError == "" {
		t.Fatalf("expected bad row parked as failed, got %+v", rows[0])
	}

	sent, err = relay.RunOnce(context.Background())
	if err != nil || sent != 0 {
		t.Fatalf("expected idle second cycle, sent=%d err=%v", sent, err)
	}
}

// backlogPublisher accepts a fixed number of events and then reports the
// consumer as backed up.
type backlogPublisher struct {
	capacity int
	accepted []string
}

func (p *backlogPublisher) Publish(_ context.Context, _ string, event ports.EventEnvelope) error {
	if len(p.accepted) >= p.capacity {
		return context.DeadlineExceeded
	}
	p.accepted = append(p.accepted, event.EventID)
	return nil
}

func TestOrderUpdateRelayKeepsUnacceptedRowsPending(t *testing.T) {
	store := memory.NewStore(memory.Seed{}, nil)
	for i := 0; i < 5; i++ {
		enqueue(t, store, "o1")
	}
	publisher := &backlogPublisher{capacity: 2}
	relay := workers.OrderUpdateRelay{Outbox: store, Publisher: publisher, Clock: store}

	sent, err := relay.RunOnce(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) || sent != 2 {
		t.Fatalf("expected backlog after 2 rows, sent=%d err=%v", sent, err)
	}
	pending, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 3 {
		t.Fatalf("expected 3 rows left for retry, got %d", len(pending))
	}

	publisher.capacity = 10
	sent, err = relay.RunOnce(context.Background())
	if err != nil || sent != 3 || len(publisher.accepted) != 5 {
		t.Fatalf("expected retry to relay the rest, sent=%d err=%v accepted=%d", sent, err, len(publisher.accepted))
	}
}
