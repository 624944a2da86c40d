package store

import (
	"context"

	"github.com/example/order-core/internal/domain/order"
)

// OrderStore defines the interface for durable order persistence.
// Implementations stamp CreatedAt/UpdatedAt on write.
type OrderStore interface {
	Save(ctx context.Context, o *order.Order) error
	FindByID(ctx context.Context, id string) (*order.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*order.Order, error)
	UpdateStatus(ctx context.Context, id string, status order.Status) error

	// Discard removes a row that was never surfaced to a caller.
	// Reserved for unwinding the losing side of an idempotency
	// registration race; live orders are cancelled, never removed.
	Discard(ctx context.Context, id string) error
}
