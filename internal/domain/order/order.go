package order

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusShipped   Status = "SHIPPED"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrMissingUser      = errors.New("order requires an owning user")
	ErrInvalidAmounts   = errors.New("order amounts must be non-negative with total >= subtotal")
	ErrInvalidStatus    = errors.New("invalid order status transition")
	ErrOrderAlreadyPaid = errors.New("order is already paid")
	ErrOrderNotPaid     = errors.New("order must be paid before shipping")
	ErrOrderShipped     = errors.New("cannot cancel shipped order")
	ErrOrderCancelled   = errors.New("order is already cancelled")
)

// validTransitions defines allowed state transitions. Forward-only,
// except cancellation, which is reachable from PENDING or FAILED.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusFailed, StatusCancelled},
	StatusPaid:      {StatusShipped},
	StatusFailed:    {StatusCancelled},
	StatusShipped:   {}, // terminal state
	StatusCancelled: {}, // terminal state
}

type Order struct {
	ID          string    `json:"id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Status      Status    `json:"status"`
	Subtotal    int64     `json:"subtotal"`
	Total       int64     `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[o.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// TransitionError returns an appropriate error for an invalid transition
func (o *Order) TransitionError(target Status) error {
	switch {
	case o.Status == StatusCancelled:
		return ErrOrderCancelled
	case o.Status == StatusShipped && target == StatusCancelled:
		return ErrOrderShipped
	case (o.Status == StatusPaid || o.Status == StatusShipped) && target == StatusPaid:
		return ErrOrderAlreadyPaid
	case o.Status == StatusPending && target == StatusShipped:
		return ErrOrderNotPaid
	default:
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, o.Status, target)
	}
}

// Validate checks the structural invariants that hold for every order
// regardless of status.
func (o *Order) Validate() error {
	if o.UserID == "" {
		return ErrMissingUser
	}
	if o.Subtotal < 0 || o.Total < 0 || o.Total < o.Subtotal {
		return ErrInvalidAmounts
	}
	return nil
}

// NewOrderNumber generates the human-facing business identifier.
// Format: ORD-<unix millis>-<4 random hex bytes>.
func NewOrderNumber(now time.Time) string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), hex.EncodeToString(suffix))
}
