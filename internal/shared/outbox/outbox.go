package outbox

import "time"

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	// StatusFailed parks a row the relay can never publish, such as an
	// undecodable payload. Failed rows are not retried.
	StatusFailed = "failed"
)

// Message is an outbox row persisted next to the state change it announces.
// The worker relay reads pending rows and publishes them to the bus.
type Message struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	Status       string
	LastError    string
	CreatedAt    time.Time
}
