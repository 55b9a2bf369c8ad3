package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutSummaryParams defines query parameters for the payout summary report.
type PayoutSummaryParams struct {
	From string `form:"from" binding:"required"` // RFC3339
	To   string `form:"to" binding:"required"`   // RFC3339
}

// PayoutSummaryResponse aggregates completed payouts and collected fees over
// a period.
type PayoutSummaryResponse struct {
	From               time.Time        `json:"from"`
	To                 time.Time        `json:"to"`
	TotalCompleted     decimal.Decimal  `json:"totalCompleted"`
	TotalPlatformFees  decimal.Decimal  `json:"totalPlatformFees"`
	TotalProcessorFees decimal.Decimal  `json:"totalProcessorFees"`
	CountByStatus      map[string]int64 `json:"countByStatus"`
}
