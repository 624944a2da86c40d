package payment

import (
	"context"
	"errors"
	"log"
	"time"
)

// FallbackMessage is the one failure reason callers see when the
// gateway could not be consulted at all.
const FallbackMessage = "payment service temporarily unavailable"

// PaymentResult is the resolved outcome of a capture attempt.
// TransactionID is set iff Success; Message carries the failure
// reason otherwise. It is never persisted by this core.
type PaymentResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	Message       string `json:"message,omitempty"`
}

func fallbackResult() PaymentResult {
	return PaymentResult{Success: false, Message: FallbackMessage}
}

// OrchestratorConfig tunes retry, timeout and concurrency.
type OrchestratorConfig struct {
	// MaxAttempts bounds gateway calls per ProcessPayment.
	MaxAttempts int
	// Backoff is the delay before the second attempt; it doubles
	// per subsequent attempt.
	Backoff time.Duration
	// AttemptTimeout is the hard deadline on each gateway call.
	AttemptTimeout time.Duration
	// MaxConcurrent caps in-flight captures across all callers.
	MaxConcurrent int
}

func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MaxAttempts:    3,
		Backoff:        100 * time.Millisecond,
		AttemptTimeout: 2 * time.Second,
		MaxConcurrent:  32,
	}
}

// Orchestrator wraps the payment gateway with a circuit breaker,
// bounded retry, per-attempt timeouts and a deterministic fallback.
// All failure below this boundary is absorbed into the PaymentResult;
// nothing here propagates as an error.
type Orchestrator struct {
	gateway Gateway
	breaker *CircuitBreaker
	cfg     OrchestratorConfig
	sem     chan struct{}
	sleep   func(time.Duration) // swappable for tests
}

func NewOrchestrator(gateway Gateway, breaker *CircuitBreaker, cfg OrchestratorConfig) *Orchestrator {
	return &Orchestrator{
		gateway: gateway,
		breaker: breaker,
		cfg:     cfg,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		sleep:   time.Sleep,
	}
}

// ProcessPayment starts a capture for the order and returns
// immediately. The future always resolves; callers branch on the
// result, never on an error.
func (o *Orchestrator) ProcessPayment(ctx context.Context, orderID string) *Future {
	f := newFuture()

	// The capture runs past caller cancellation, including time spent
	// queued for a slot: an abandoned call still resolves to a real
	// gateway outcome, and the wait must not skew what the breaker
	// observed.
	work := context.WithoutCancel(ctx)

	go func() {
		o.sem <- struct{}{}
		defer func() { <-o.sem }()

		f.complete(o.capture(work, orderID))
	}()

	return f
}

func (o *Orchestrator) capture(ctx context.Context, orderID string) PaymentResult {
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		if !o.breaker.Allow() {
			return fallbackResult()
		}

		resp, err := o.callGateway(ctx, orderID)
		if err == nil {
			o.breaker.RecordSuccess()
			if !resp.Approved {
				// Declined by a healthy gateway: final, not retried.
				return PaymentResult{Success: false, Message: resp.Reason}
			}
			return PaymentResult{Success: true, TransactionID: resp.TransactionID}
		}

		if !isTransient(err) {
			// The gateway answered and rejected the request shape.
			o.breaker.RecordSuccess()
			return PaymentResult{Success: false, Message: err.Error()}
		}

		o.breaker.RecordFailure()
		log.Printf("[Payment] Capture attempt %d/%d for order %s failed: %v",
			attempt, o.cfg.MaxAttempts, orderID, err)

		if attempt < o.cfg.MaxAttempts {
			o.sleep(o.cfg.Backoff << (attempt - 1))
		}
	}

	return fallbackResult()
}

// callGateway bounds one gateway call by the attempt deadline. On
// expiry the in-flight call is left to finish on its own; the caller
// proceeds as if it timed out.
func (o *Orchestrator) callGateway(ctx context.Context, orderID string) (GatewayResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.AttemptTimeout)
	defer cancel()

	type outcome struct {
		resp GatewayResponse
		err  error
	}
	ch := make(chan outcome, 1)
	go func() {
		resp, err := o.gateway.Capture(ctx, orderID)
		ch <- outcome{resp, err}
	}()

	select {
	case out := <-ch:
		return out.resp, out.err
	case <-ctx.Done():
		return GatewayResponse{}, ctx.Err()
	}
}

// isTransient classifies failures for retry and breaker accounting.
// Timeouts and I/O errors are transient; validation-class rejections
// are not.
func isTransient(err error) bool {
	return !errors.Is(err, ErrInvalidRequest)
}
