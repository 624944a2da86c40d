package payment

import "context"

// Future is the asynchronous handle to a payment attempt. It always
// resolves to a PaymentResult; abandoning the wait (ctx cancellation)
// does not stop the in-flight attempt, so breaker accounting stays
// truthful.
type Future struct {
	done   chan struct{}
	result PaymentResult
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(result PaymentResult) {
	f.result = result
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result blocks until the attempt resolves or ctx is cancelled.
// A ctx error here is advisory abandonment, not a payment failure.
func (f *Future) Result(ctx context.Context) (PaymentResult, error) {
	select {
	case <-f.done:
		return f.result, nil
	case <-ctx.Done():
		return PaymentResult{}, ctx.Err()
	}
}
