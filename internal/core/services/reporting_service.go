package services

import (
	"context"
	"fmt"
	"time"

	portsrepo "github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/dto"
)

// reportingService aggregates payout history for admin review.
type reportingService struct {
	reportingRepo portsrepo.ReportingReader
}

// NewReportingService creates a new reporting service.
func NewReportingService(reportingRepo portsrepo.ReportingReader) portssvc.ReportingService {
	return &reportingService{reportingRepo: reportingRepo}
}

// Ensure reportingService implements the portssvc.ReportingService interface
var _ portssvc.ReportingService = (*reportingService)(nil)

// GetPayoutSummary aggregates completed payouts and collected fees between
// from and to (inclusive).
func (s *reportingService) GetPayoutSummary(ctx context.Context, from, to time.Time) (*dto.PayoutSummaryResponse, error) {
	summary, err := s.reportingRepo.GetPayoutSummary(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get payout summary: %w", err)
	}

	counts := make(map[string]int64, len(summary.CountByStatus))
	for status, count := range summary.CountByStatus {
		counts[string(status)] = count
	}

	return &dto.PayoutSummaryResponse{
		From:               from,
		To:                 to,
		TotalCompleted:     summary.TotalCompleted,
		TotalPlatformFees:  summary.TotalPlatformFees,
		TotalProcessorFees: summary.TotalProcessorFees,
		CountByStatus:      counts,
	}, nil
}
