package order

import "time"

const (
	EventOrderCreated       = "ORDER_CREATED"
	EventOrderPaid          = "ORDER_PAID"
	EventOrderPaymentFailed = "ORDER_PAYMENT_FAILED"
	EventOrderCancelled     = "ORDER_CANCELLED"
	EventOrderShipped       = "ORDER_SHIPPED"
	EventIdempotentRegister = "IDEMPOTENT_ORDER_REGISTERED"
)

// Event is an immutable fact about an order lifecycle transition.
// Appended to the bus once per transition, never mutated.
type Event struct {
	EventType      string    `json:"event_type"`
	OrderID        string    `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	UserID         string    `json:"user_id"`
	Status         Status    `json:"status"`
	Total          int64     `json:"total"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewEvent snapshots the order as of emission time.
func NewEvent(eventType string, o *Order, idempotencyKey string) Event {
	return Event{
		EventType:      eventType,
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		UserID:         o.UserID,
		Status:         o.Status,
		Total:          o.Total,
		IdempotencyKey: idempotencyKey,
		Timestamp:      time.Now(),
	}
}
