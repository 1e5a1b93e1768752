package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ticketops/internal/shared/events"
)

const subscriberBuffer = 128

// ErrSubscriberClosed reports that a subscriber shut down before it accepted
// the event; the publisher should keep the event for a later retry.
var ErrSubscriberClosed = errors.New("subscriber closed before accepting event")

type subscription struct {
	group string
	ch    chan events.Envelope
	done  chan struct{}

	// mu orders sends against close so nothing lands after the final drain.
	mu     sync.Mutex
	closed bool
}

// Kafka is the event bus adapter shared by the outbox relay and consumers.
// Delivery is in-process publish/subscribe: every Subscribe call owns a
// buffered channel and receives each event published to its topic.
// Publish never drops: a full buffer blocks until the subscriber catches up,
// the subscriber closes, or ctx ends.
type Kafka struct {
	mu          sync.RWMutex
	brokers     []string
	subscribers map[string][]*subscription
	logger      *slog.Logger
}

func NewKafka(brokers []string, logger *slog.Logger) (*Kafka, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return &Kafka{
		brokers:     append([]string(nil), brokers...),
		subscribers: make(map[string][]*subscription),
		logger:      logger,
	}, nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, event events.Envelope) error {
	k.mu.RLock()
	subs := append([]*subscription(nil), k.subscribers[topic]...)
	k.mu.RUnlock()

	for _, sub := range subs {
		if err := k.deliver(ctx, topic, sub, event); err != nil {
			return err
		}
	}

	k.logger.Debug("event published",
		"event", "kafka_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"subscriber_count", len(subs),
	)
	return nil
}

func (k *Kafka) deliver(ctx context.Context, topic string, sub *subscription, event events.Envelope) error {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	if sub.closed {
		return fmt.Errorf("%w: %s", ErrSubscriberClosed, sub.group)
	}
	select {
	case sub.ch <- event:
		return nil
	default:
	}

	k.logger.Warn("subscriber backlog full, waiting",
		"event", "kafka_publish_backpressure",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"consumer_group", sub.group,
		"event_id", event.EventID,
	)
	select {
	case sub.ch <- event:
		return nil
	case <-sub.done:
		return fmt.Errorf("%w: %s", ErrSubscriberClosed, sub.group)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (k *Kafka) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, events.Envelope) error,
) error {
	sub := &subscription{
		group: consumerGroup,
		ch:    make(chan events.Envelope, subscriberBuffer),
		done:  make(chan struct{}),
	}

	k.mu.Lock()
	k.subscribers[topic] = append(k.subscribers[topic], sub)
	k.mu.Unlock()

	go func() {
		for {
			// Checked before select so a cancelled subscriber never picks up
			// another buffered event with the dead context.
			if ctx.Err() != nil {
				k.removeSubscriber(topic, sub)
				k.drain(context.WithoutCancel(ctx), topic, sub, handler)
				return
			}
			select {
			case <-ctx.Done():
			case event := <-sub.ch:
				k.handle(ctx, topic, consumerGroup, handler, event)
			}
		}
	}()
	return nil
}

// drain hands events already accepted by Publish to the handler before the
// subscriber exits, since their outbox rows are already marked sent.
func (k *Kafka) drain(
	ctx context.Context,
	topic string,
	sub *subscription,
	handler func(context.Context, events.Envelope) error,
) {
	close(sub.done)
	sub.mu.Lock()
	sub.closed = true
	sub.mu.Unlock()

	for {
		select {
		case event := <-sub.ch:
			k.handle(ctx, topic, sub.group, handler, event)
		default:
			return
		}
	}
}

func (k *Kafka) handle(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, events.Envelope) error,
	event events.Envelope,
) {
	if err := handler(ctx, event); err != nil {
		k.logger.Error("consumer handler failed",
			"event", "kafka_consume_failed",
			"module", "internal/platform/messaging",
			"layer", "platform",
			"topic", topic,
			"consumer_group", consumerGroup,
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
	}
}

// Brokers returns the configured broker list. The in-process bus only reports
// it at startup.
func (k *Kafka) Brokers() []string {
	return append([]string(nil), k.brokers...)
}

func (k *Kafka) removeSubscriber(topic string, target *subscription) {
	k.mu.Lock()
	defer k.mu.Unlock()

	items := k.subscribers[topic]
	if len(items) == 0 {
		return
	}
	filtered := make([]*subscription, 0, len(items))
	for _, item := range items {
		if item != target {
			filtered = append(filtered, item)
		}
	}
	k.subscribers[topic] = filtered
}
