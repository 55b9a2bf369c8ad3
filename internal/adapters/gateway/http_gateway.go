package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiftnurse/escrow_backend/internal/apperrors"
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
)

const defaultTimeout = 15 * time.Second

// HTTPGateway talks JSON to the payment provider. Every request carries an
// Idempotency-Key header so the provider deduplicates retries after
// ambiguous outcomes.
type HTTPGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPGateway creates a gateway client for the given provider base URL.
func NewHTTPGateway(baseURL, apiKey string) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// Ensure HTTPGateway implements the portssvc.PaymentGateway interface
var _ portssvc.PaymentGateway = (*HTTPGateway)(nil)

type gatewayRequest struct {
	Amount    string `json:"amount"` // Minor units as a decimal string
	Currency  string `json:"currency"`
	Method    string `json:"method,omitempty"`
	PartyID   string `json:"partyID,omitempty"`
	ChargeRef string `json:"chargeRef,omitempty"`
}

type gatewayResponse struct {
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

// Charge collects the gross amount from the organizer's payment method.
func (g *HTTPGateway) Charge(ctx context.Context, idempotencyKey string, amount decimal.Decimal, currencyCode string, method domain.PaymentMethod, payerID string) (*portssvc.GatewayResult, error) {
	return g.post(ctx, "/v1/charges", idempotencyKey, gatewayRequest{
		Amount:   amount.String(),
		Currency: currencyCode,
		Method:   string(method),
		PartyID:  payerID,
	})
}

// Payout transfers the net amount to the nurse.
func (g *HTTPGateway) Payout(ctx context.Context, idempotencyKey string, amount decimal.Decimal, currencyCode string, method domain.PaymentMethod, payeeID string) (*portssvc.GatewayResult, error) {
	return g.post(ctx, "/v1/payouts", idempotencyKey, gatewayRequest{
		Amount:   amount.String(),
		Currency: currencyCode,
		Method:   string(method),
		PartyID:  payeeID,
	})
}

// Refund returns the refundable amount to the organizer against the original
// charge reference.
func (g *HTTPGateway) Refund(ctx context.Context, idempotencyKey string, chargeRef string, amount decimal.Decimal, currencyCode string) (*portssvc.GatewayResult, error) {
	return g.post(ctx, "/v1/refunds", idempotencyKey, gatewayRequest{
		Amount:    amount.String(),
		Currency:  currencyCode,
		ChargeRef: chargeRef,
	})
}

// post sends one gateway request and normalizes the outcome:
//   - 2xx: success, reference extracted from the body
//   - 402 / 422: apperrors.ErrGatewayDeclined (definitive rejection)
//   - timeouts, transport failures, 5xx: apperrors.ErrGatewayUnavailable
//     (outcome unknown, caller retries with the same idempotency key)
func (g *HTTPGateway) post(ctx context.Context, path string, idempotencyKey string, payload gatewayRequest) (*portssvc.GatewayResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: gateway request timed out: %w", apperrors.ErrGatewayUnavailable, err)
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: gateway request cancelled: %w", apperrors.ErrGatewayUnavailable, err)
		}
		return nil, fmt.Errorf("%w: gateway transport failure: %w", apperrors.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read gateway response: %w", apperrors.ErrGatewayUnavailable, err)
	}

	var parsed gatewayResponse
	// A decline body may not be valid JSON; the status code is authoritative.
	_ = json.Unmarshal(respBody, &parsed)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if parsed.Reference == "" {
			return nil, fmt.Errorf("%w: gateway response missing reference", apperrors.ErrGatewayUnavailable)
		}
		return &portssvc.GatewayResult{Reference: parsed.Reference}, nil

	case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusUnprocessableEntity:
		if parsed.Message != "" {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrGatewayDeclined, parsed.Message)
		}
		return nil, fmt.Errorf("%w: gateway returned status %d", apperrors.ErrGatewayDeclined, resp.StatusCode)

	default:
		return nil, fmt.Errorf("%w: gateway returned status %d", apperrors.ErrGatewayUnavailable, resp.StatusCode)
	}
}
