package entities

import "time"

type TicketStatus string

const (
	TicketStatusActive  TicketStatus = "Active"
	TicketStatusExpired TicketStatus = "Expired"
)

type Ticket struct {
	TicketID  string
	EventID   string
	Status    TicketStatus
	UpdatedAt time.Time
}

func (t Ticket) IsExpired() bool {
	return t.Status == TicketStatusExpired
}
