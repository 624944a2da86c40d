package eventbus

import "context"

// Topic names are a routing convention shared with downstream
// consumers, not a protocol requirement.
const (
	TopicOrderEvents     = "order-events"
	TopicIdempotencyKeys = "idempotency-keys"
)

// Publisher defines the publish-only contract this core holds against
// the event bus. Delivery is at-least-once from the bus onward; a
// failed Publish is the caller's signal that the append never happened.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
	Close() error
}
