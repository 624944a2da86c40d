package payment

import (
	"context"
	"errors"
)

var (
	// ErrInvalidRequest marks validation-class gateway failures.
	// These are answered by the gateway, never retried, and do not
	// count against its health.
	ErrInvalidRequest = errors.New("invalid capture request")
)

// GatewayResponse is what a reachable gateway answered. Approved=false
// is a decline, a business outcome, not an infrastructure failure.
type GatewayResponse struct {
	Approved      bool
	TransactionID string
	Reason        string
}

// Gateway captures payment against the remote payment service.
// An error return means the gateway could not be reached or did not
// answer in time; declines come back as a response.
type Gateway interface {
	Capture(ctx context.Context, orderID string) (GatewayResponse, error)
}
