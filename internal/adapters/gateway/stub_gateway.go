package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/utils"
)

// StubGateway is a deterministic in-process gateway for local development.
// It approves everything and replays the same reference for a repeated
// idempotency key, mimicking provider-side deduplication.
type StubGateway struct {
	mu   sync.Mutex
	seen map[string]string
}

// NewStubGateway creates a stub gateway.
func NewStubGateway() *StubGateway {
	return &StubGateway{seen: make(map[string]string)}
}

// Ensure StubGateway implements the portssvc.PaymentGateway interface
var _ portssvc.PaymentGateway = (*StubGateway)(nil)

func (g *StubGateway) Charge(ctx context.Context, idempotencyKey string, amount decimal.Decimal, currencyCode string, method domain.PaymentMethod, payerID string) (*portssvc.GatewayResult, error) {
	return g.result("stub-charge", idempotencyKey), nil
}

func (g *StubGateway) Payout(ctx context.Context, idempotencyKey string, amount decimal.Decimal, currencyCode string, method domain.PaymentMethod, payeeID string) (*portssvc.GatewayResult, error) {
	return g.result("stub-payout", idempotencyKey), nil
}

func (g *StubGateway) Refund(ctx context.Context, idempotencyKey string, chargeRef string, amount decimal.Decimal, currencyCode string) (*portssvc.GatewayResult, error) {
	return g.result("stub-refund", idempotencyKey), nil
}

func (g *StubGateway) result(prefix, idempotencyKey string) *portssvc.GatewayResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	if ref, ok := g.seen[idempotencyKey]; ok {
		return &portssvc.GatewayResult{Reference: ref}
	}
	suffix, err := utils.GenerateSecureRandomString(8)
	if err != nil {
		suffix = idempotencyKey
	}
	ref := fmt.Sprintf("%s-%s", prefix, suffix)
	g.seen[idempotencyKey] = ref
	return &portssvc.GatewayResult{Reference: ref}
}
