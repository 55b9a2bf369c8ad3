package services

import (
	"context"
	"time"

	"github.com/shiftnurse/escrow_backend/internal/dto"
)

// ReportingService defines operations for payout reporting
type ReportingService interface {
	// GetPayoutSummary aggregates completed payouts and collected fees over
	// the given period.
	GetPayoutSummary(ctx context.Context, from, to time.Time) (*dto.PayoutSummaryResponse, error)
}
