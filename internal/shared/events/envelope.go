package events

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical, versioned event envelope carried on the bus and
// persisted in outbox payloads. Keep it backward compatible.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id,omitempty"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

const (
	EventTypeOrderUpdated = "order.updated"
	TopicOrderUpdates     = "orders.updated"
)

// OrderUpdated is the data payload of an order.updated envelope.
type OrderUpdated struct {
	OrderID string `json:"order_id"`
}
