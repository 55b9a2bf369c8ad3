package fees

import (
	"fmt"

	"github.com/shiftnurse/escrow_backend/internal/apperrors"
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Fees is the exact three-way split of a gross escrow amount.
// PlatformFee + ProcessorFee + NetAmount always equals the gross input.
type Fees struct {
	PlatformFee  decimal.Decimal
	ProcessorFee decimal.Decimal
	NetAmount    decimal.Decimal
}

// Schedule holds the fee parameters. It is a pure lookup: the same schedule,
// amount and method always produce the same split, so the quote computed at
// escrow creation matches the settlement computed at release.
type Schedule struct {
	// PlatformRate is the platform's percentage of gross, e.g. 0.05 for 5%.
	PlatformRate decimal.Decimal
	// ProcessorRates maps each payment method to its processor fee terms.
	ProcessorRates map[domain.PaymentMethod]ProcessorFee
}

// ProcessorFee is a percentage plus a fixed component in minor units.
type ProcessorFee struct {
	Rate  decimal.Decimal
	Fixed decimal.Decimal
}

// DefaultSchedule returns the standard schedule: 5% platform fee for every
// method, no processor fee on card (absorbed in the platform rate), and a
// fixed 250-minor-unit processor fee on bank transfers.
func DefaultSchedule() Schedule {
	return Schedule{
		PlatformRate: decimal.NewFromFloat(0.05),
		ProcessorRates: map[domain.PaymentMethod]ProcessorFee{
			domain.MethodCard:         {Rate: decimal.Zero, Fixed: decimal.Zero},
			domain.MethodBankTransfer: {Rate: decimal.Zero, Fixed: decimal.NewFromInt(250)},
		},
	}
}

// Calculate splits gross into platform fee, processor fee and net payout for
// the given method, rounding each fee half-up at the currency's minor-unit
// exponent. The net amount is derived by subtraction so the three components
// sum to gross exactly.
func (s Schedule) Calculate(gross decimal.Decimal, method domain.PaymentMethod, exponent int32) (Fees, error) {
	if gross.LessThanOrEqual(decimal.Zero) {
		return Fees{}, fmt.Errorf("%w: amount must be positive, got %s", apperrors.ErrValidation, gross.String())
	}
	if !gross.Equal(gross.Round(exponent)) {
		return Fees{}, fmt.Errorf("%w: amount %s has sub-minor-unit precision for exponent %d", apperrors.ErrValidation, gross.String(), exponent)
	}
	proc, ok := s.ProcessorRates[method]
	if !ok {
		return Fees{}, fmt.Errorf("%w: unsupported payment method %q", apperrors.ErrValidation, method)
	}

	// decimal.Round rounds half away from zero, which for positive fees is
	// round-half-up at the currency's minor unit.
	platformFee := gross.Mul(s.PlatformRate).Round(exponent)
	processorFee := gross.Mul(proc.Rate).Round(exponent).Add(proc.Fixed)
	net := gross.Sub(platformFee).Sub(processorFee)

	if net.LessThanOrEqual(decimal.Zero) {
		return Fees{}, fmt.Errorf("%w: fees %s consume the entire gross amount %s", apperrors.ErrValidation, platformFee.Add(processorFee).String(), gross.String())
	}

	return Fees{
		PlatformFee:  platformFee,
		ProcessorFee: processorFee,
		NetAmount:    net,
	}, nil
}

// RefundableAmount returns how much of the gross amount is returned to the
// organizer on refund. Fixed processor fees are non-refundable; percentage
// components are returned in full.
func (s Schedule) RefundableAmount(gross decimal.Decimal, method domain.PaymentMethod) decimal.Decimal {
	proc, ok := s.ProcessorRates[method]
	if !ok {
		return gross
	}
	return gross.Sub(proc.Fixed)
}
