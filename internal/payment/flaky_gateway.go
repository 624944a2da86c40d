package payment

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
)

// FlakyGateway simulates an unreliable remote gateway: mostly
// approvals, some declines, and the occasional hang long enough to
// trip attempt timeouts. Used by the demo worker and load exercises.
type FlakyGateway struct {
	// ApproveRate and DeclineRate are percentages; the remainder
	// hangs until HangFor elapses or ctx expires.
	ApproveRate int
	DeclineRate int
	Latency     time.Duration
	HangFor     time.Duration
}

func NewFlakyGateway() *FlakyGateway {
	return &FlakyGateway{
		ApproveRate: 70,
		DeclineRate: 20,
		Latency:     100 * time.Millisecond,
		HangFor:     5 * time.Second,
	}
}

func (g *FlakyGateway) Capture(ctx context.Context, orderID string) (GatewayResponse, error) {
	chance := rand.IntN(100)

	switch {
	case chance < g.ApproveRate:
		if err := wait(ctx, g.Latency); err != nil {
			return GatewayResponse{}, err
		}
		return GatewayResponse{Approved: true, TransactionID: uuid.New().String()}, nil

	case chance < g.ApproveRate+g.DeclineRate:
		if err := wait(ctx, g.Latency); err != nil {
			return GatewayResponse{}, err
		}
		return GatewayResponse{Approved: false, Reason: "card declined"}, nil

	default:
		// Hang past any sane deadline, then fail anyway.
		if err := wait(ctx, g.HangFor); err != nil {
			return GatewayResponse{}, err
		}
		return GatewayResponse{}, errors.New("connection reset by peer")
	}
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
