package services

import (
	"context"
	"time"

	"github.com/shiftnurse/escrow_backend/internal/dto"
)

// BatchPayoutSvc runs the scheduled payout sweep.
type BatchPayoutSvc interface {
	// RunScheduledPayouts finds all jobs completed on or before now minus the
	// grace period whose escrow is still FUNDED and no dispute is open, and
	// releases and pays out each one independently. A failure on one job
	// never stops the rest. Re-running the batch is safe: already-released
	// escrows are skipped.
	RunScheduledPayouts(ctx context.Context, now time.Time) (*dto.BatchPayoutReport, error)
}
