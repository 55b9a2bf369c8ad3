package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
)

// GatewayResult is the normalized outcome of a successful gateway call.
type GatewayResult struct {
	// Reference is the gateway's identifier for the charge, payout or refund.
	Reference string
}

// PaymentGateway abstracts the external payment provider. All operations take
// an idempotency key so that retries after an ambiguous outcome cannot move
// money twice. Implementations return apperrors.ErrGatewayDeclined for
// definitive rejections and apperrors.ErrGatewayUnavailable for timeouts and
// transport failures, where the true outcome is unknown.
type PaymentGateway interface {
	// Charge collects the gross amount from the organizer's payment method.
	Charge(ctx context.Context, idempotencyKey string, amount decimal.Decimal, currencyCode string, method domain.PaymentMethod, payerID string) (*GatewayResult, error)

	// Payout transfers the net amount to the nurse.
	Payout(ctx context.Context, idempotencyKey string, amount decimal.Decimal, currencyCode string, method domain.PaymentMethod, payeeID string) (*GatewayResult, error)

	// Refund returns the refundable amount to the organizer against the
	// original charge reference.
	Refund(ctx context.Context, idempotencyKey string, chargeRef string, amount decimal.Decimal, currencyCode string) (*GatewayResult, error)
}

// Telemetry reports product events to the analytics backend. Implementations
// must never fail the caller.
type Telemetry interface {
	Enqueue(distinctID string, event string, properties map[string]any)
}
