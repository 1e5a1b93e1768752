package entities

import "time"

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusSuccess OrderStatus = "success"
	OrderStatusFailed  OrderStatus = "failed"
)

type Order struct {
	OrderID   string
	EventID   string
	Status    OrderStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsCompletedPurchase reports whether the order state should notify the organizer.
func (o Order) IsCompletedPurchase() bool {
	return o.Status == OrderStatusSuccess
}
