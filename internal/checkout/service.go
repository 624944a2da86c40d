package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/order-core/internal/domain/order"
	"github.com/example/order-core/internal/eventbus"
	"github.com/example/order-core/internal/idempotency"
	"github.com/example/order-core/internal/infrastructure/store"
	"github.com/google/uuid"
)

const (
	resourceTypeOrder = "order"
	idempotencyTTL    = 24 * time.Hour
	maxKeyLength      = 128

	// opTimeout bounds each store/ledger round trip so one slow
	// dependency cannot hold a request goroutine indefinitely.
	opTimeout = 5 * time.Second
)

var (
	ErrInvalidUser           = errors.New("order creation requires a resolved user identity")
	ErrIdempotencyKeyTooLong = errors.New("idempotency key exceeds maximum length")
)

// User is the already-authenticated identity handed in by the caller.
// This core trusts it without re-validating credentials.
type User struct {
	ID    string
	Email string
}

// Service orchestrates idempotent order creation and the lifecycle
// status transitions driven by payment results.
type Service struct {
	store  store.OrderStore
	ledger idempotency.Ledger
	bus    eventbus.Publisher
}

// bound derives the per-operation deadline for a blocking dependency
// call.
func bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

func NewService(s store.OrderStore, l idempotency.Ledger, bus eventbus.Publisher) *Service {
	return &Service{store: s, ledger: l, bus: bus}
}

// CreateOrder creates a new PENDING order for the user, or returns the
// order a live idempotency record already resolved the key to. The
// lookup-then-create sequence is the only entry point; callers cannot
// reach the create path without the lookup.
//
// The persisted order always exists before any event referencing it is
// published. If the save fails, nothing else happens. If a publish
// fails after a durable save, the order is still returned; the event
// loss is logged.
func (s *Service) CreateOrder(ctx context.Context, user User, idempotencyKey string) (*order.Order, error) {
	if user.ID == "" {
		return nil, ErrInvalidUser
	}
	if len(idempotencyKey) > maxKeyLength {
		return nil, ErrIdempotencyKeyTooLong
	}

	if idempotencyKey != "" {
		existing, found, err := s.resolveKey(ctx, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if found {
			return existing, nil
		}
	}

	now := time.Now()
	o := &order.Order{
		ID:          uuid.New().String(),
		OrderNumber: order.NewOrderNumber(now),
		UserID:      user.ID,
		Status:      order.StatusPending,
		Subtotal:    0,
		Total:       0,
	}

	saveCtx, cancel := bound(ctx)
	err := s.store.Save(saveCtx, o)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	if idempotencyKey != "" {
		regCtx, cancel := bound(ctx)
		err := s.ledger.Register(regCtx, idempotencyKey, resourceTypeOrder, o.ID, idempotencyTTL)
		cancel()
		if errors.Is(err, idempotency.ErrConflict) {
			return s.convergeOnWinner(ctx, o, idempotencyKey)
		}
		if err != nil {
			// The row cannot be tied to its key; take it back out so
			// the failed attempt leaves nothing behind.
			s.discard(ctx, o.ID)
			return nil, fmt.Errorf("register idempotency key: %w", err)
		}
	}

	// Events go out only once the order is both durable and, when a
	// key is present, registered: a row that loses the key race is
	// discarded before anything downstream could reference it.
	s.publish(ctx, eventbus.TopicOrderEvents, order.NewEvent(order.EventOrderCreated, o, idempotencyKey))
	if idempotencyKey != "" {
		s.publish(ctx, eventbus.TopicIdempotencyKeys, order.NewEvent(order.EventIdempotentRegister, o, idempotencyKey))
	}

	return o, nil
}

// convergeOnWinner resolves a lost registration race: the winner's
// order becomes the answer and the loser's row is discarded, keeping
// one persisted row per live key. No event has been published for the
// losing row at this point, so nothing downstream ever references it.
func (s *Service) convergeOnWinner(ctx context.Context, loser *order.Order, key string) (*order.Order, error) {
	winner, found, err := s.resolveKey(ctx, key)
	if err != nil || !found {
		// The winner could not be loaded (transient failure, or its
		// record expired right after winning). The caller still holds
		// a durable order; keep it and surface it normally.
		if err != nil {
			log.Printf("[Checkout] Key %q raced but winner lookup failed, keeping order %s: %v", key, loser.ID, err)
		}
		s.publish(ctx, eventbus.TopicOrderEvents, order.NewEvent(order.EventOrderCreated, loser, key))
		return loser, nil
	}

	log.Printf("[Checkout] Key %q raced, converging to order %s", key, winner.ID)
	s.discard(ctx, loser.ID)
	return winner, nil
}

// discard removes a row no caller has seen and no event describes.
// Best effort: failure here leaves storage debris, not a reachable
// order.
func (s *Service) discard(ctx context.Context, orderID string) {
	dctx, cancel := bound(ctx)
	defer cancel()
	if err := s.store.Discard(dctx, orderID); err != nil {
		log.Printf("[Checkout] Failed to discard order %s after lost key race: %v", orderID, err)
	}
}

// resolveKey returns the order a live record maps the key to.
func (s *Service) resolveKey(ctx context.Context, key string) (*order.Order, bool, error) {
	lookupCtx, cancel := bound(ctx)
	rec, found, err := s.ledger.Lookup(lookupCtx, key)
	cancel()
	if err != nil {
		return nil, false, fmt.Errorf("idempotency lookup: %w", err)
	}
	if !found || rec.ResourceType != resourceTypeOrder {
		return nil, false, nil
	}

	findCtx, cancel := bound(ctx)
	o, err := s.store.FindByID(findCtx, rec.ResourceID)
	cancel()
	if err != nil {
		return nil, false, fmt.Errorf("load order %s for key %q: %w", rec.ResourceID, key, err)
	}
	return o, true, nil
}

// MarkPaid records a successful payment capture against the order.
func (s *Service) MarkPaid(ctx context.Context, orderID, transactionID string) error {
	log.Printf("[Checkout] Order %s paid (txn %s)", orderID, transactionID)
	return s.transition(ctx, orderID, order.StatusPaid, order.EventOrderPaid)
}

// MarkPaymentFailed records a terminally failed payment capture.
func (s *Service) MarkPaymentFailed(ctx context.Context, orderID, reason string) error {
	log.Printf("[Checkout] Order %s payment failed: %s", orderID, reason)
	return s.transition(ctx, orderID, order.StatusFailed, order.EventOrderPaymentFailed)
}

// Cancel cancels an order. Cancellation is a status write, never a
// row removal.
func (s *Service) Cancel(ctx context.Context, orderID, reason string) error {
	log.Printf("[Checkout] Order %s cancelled: %s", orderID, reason)
	return s.transition(ctx, orderID, order.StatusCancelled, order.EventOrderCancelled)
}

func (s *Service) transition(ctx context.Context, orderID string, target order.Status, eventType string) error {
	findCtx, cancel := bound(ctx)
	o, err := s.store.FindByID(findCtx, orderID)
	cancel()
	if err != nil {
		return err
	}

	if !o.CanTransitionTo(target) {
		return o.TransitionError(target)
	}

	updateCtx, cancel := bound(ctx)
	err = s.store.UpdateStatus(updateCtx, orderID, target)
	cancel()
	if err != nil {
		return err
	}

	o.Status = target
	s.publish(ctx, eventbus.TopicOrderEvents, order.NewEvent(eventType, o, ""))
	return nil
}

func (s *Service) publish(ctx context.Context, topic string, event order.Event) {
	if err := s.bus.Publish(ctx, topic, event.OrderID, event); err != nil {
		log.Printf("[Checkout] Failed to publish %s for order %s: %v", event.EventType, event.OrderID, err)
	}
}
