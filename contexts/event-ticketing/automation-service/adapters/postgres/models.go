package postgresadapter

import (
	"time"

	"ticketops/contexts/event-ticketing/automation-service/domain/entities"
)

type orderModel struct {
	OrderID   string    `gorm:"column:order_id;primaryKey"`
	EventID   string    `gorm:"column:event_id"`
	Status    string    `gorm:"column:status"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (orderModel) TableName() string {
	return "orders"
}

func (m orderModel) toEntity() entities.Order {
	return entities.Order{
		OrderID:   m.OrderID,
		EventID:   m.EventID,
		Status:    entities.OrderStatus(m.Status),
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type eventModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	Name        string    `gorm:"column:name"`
	Date        time.Time `gorm:"column:date"`
	OrganizerID string    `gorm:"column:organizer_id"`
}

func (eventModel) TableName() string {
	return "events"
}

func (m eventModel) toEntity() entities.Event {
	return entities.Event{
		EventID:     m.EventID,
		Name:        m.Name,
		Date:        m.Date.UTC(),
		OrganizerID: m.OrganizerID,
	}
}

type organizerModel struct {
	OrganizerID string `gorm:"column:organizer_id;primaryKey"`
	Name        string `gorm:"column:name"`
	FCMToken    string `gorm:"column:fcm_token"`
}

func (organizerModel) TableName() string {
	return "organizers"
}

func (m organizerModel) toEntity() entities.Organizer {
	return entities.Organizer{
		OrganizerID: m.OrganizerID,
		Name:        m.Name,
		FCMToken:    m.FCMToken,
	}
}

type ticketModel struct {
	TicketID  string    `gorm:"column:ticket_id;primaryKey"`
	EventID   string    `gorm:"column:event_id"`
	Status    string    `gorm:"column:status"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (ticketModel) TableName() string {
	return "tickets"
}

func (m ticketModel) toEntity() entities.Ticket {
	return entities.Ticket{
		TicketID:  m.TicketID,
		EventID:   m.EventID,
		Status:    entities.TicketStatus(m.Status),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type orderNotificationModel struct {
	OrderID    string    `gorm:"column:order_id;primaryKey"`
	EventID    string    `gorm:"column:event_id"`
	ReservedAt time.Time `gorm:"column:reserved_at"`
}

func (orderNotificationModel) TableName() string {
	return "order_notifications"
}

type orderUpdateOutboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	LastError    string     `gorm:"column:last_error"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
	FailedAt     *time.Time `gorm:"column:failed_at"`
}

func (orderUpdateOutboxModel) TableName() string {
	return "order_update_outbox"
}
