package fees_test

import (
	"testing"

	"github.com/shiftnurse/escrow_backend/internal/apperrors"
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	"github.com/shiftnurse/escrow_backend/internal/utils/fees"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_JPYCardScenario(t *testing.T) {
	// 10,000 JPY via CARD at the default 5% schedule.
	schedule := fees.DefaultSchedule()

	got, err := schedule.Calculate(decimal.NewFromInt(10000), domain.MethodCard, 0)

	require.NoError(t, err)
	assert.True(t, got.PlatformFee.Equal(decimal.NewFromInt(500)), "platform fee = %s", got.PlatformFee)
	assert.True(t, got.ProcessorFee.Equal(decimal.Zero), "processor fee = %s", got.ProcessorFee)
	assert.True(t, got.NetAmount.Equal(decimal.NewFromInt(9500)), "net = %s", got.NetAmount)
}

func TestCalculate_BankTransferFixedFee(t *testing.T) {
	schedule := fees.DefaultSchedule()

	got, err := schedule.Calculate(decimal.NewFromInt(10000), domain.MethodBankTransfer, 0)

	require.NoError(t, err)
	assert.True(t, got.PlatformFee.Equal(decimal.NewFromInt(500)))
	assert.True(t, got.ProcessorFee.Equal(decimal.NewFromInt(250)))
	assert.True(t, got.NetAmount.Equal(decimal.NewFromInt(9250)))
}

func TestCalculate_ComponentsSumToGrossExactly(t *testing.T) {
	schedule := fees.Schedule{
		// An awkward rate that forces rounding on most inputs.
		PlatformRate: decimal.NewFromFloat(0.0725),
		ProcessorRates: map[domain.PaymentMethod]fees.ProcessorFee{
			domain.MethodCard:         {Rate: decimal.NewFromFloat(0.036), Fixed: decimal.Zero},
			domain.MethodBankTransfer: {Rate: decimal.Zero, Fixed: decimal.NewFromInt(250)},
		},
	}

	amounts := []int64{1, 3, 99, 101, 999, 1001, 12345, 999999, 10000001}
	for _, minor := range amounts {
		for _, method := range domain.KnownPaymentMethods {
			for _, exponent := range []int32{0, 2} {
				gross := decimal.New(minor, -exponent)
				got, err := schedule.Calculate(gross, method, exponent)
				if err != nil {
					// Tiny amounts may be consumed entirely by the fixed fee.
					assert.ErrorIs(t, err, apperrors.ErrValidation)
					continue
				}
				sum := got.PlatformFee.Add(got.ProcessorFee).Add(got.NetAmount)
				assert.True(t, sum.Equal(gross),
					"gross %s method %s exponent %d: %s + %s + %s = %s",
					gross, method, exponent, got.PlatformFee, got.ProcessorFee, got.NetAmount, sum)
			}
		}
	}
}

func TestCalculate_RoundsHalfUpAtExponent(t *testing.T) {
	schedule := fees.Schedule{
		PlatformRate: decimal.NewFromFloat(0.05),
		ProcessorRates: map[domain.PaymentMethod]fees.ProcessorFee{
			domain.MethodCard: {Rate: decimal.Zero, Fixed: decimal.Zero},
		},
	}

	// 5% of 1,010 JPY is 50.5; half-up at exponent 0 gives 51.
	got, err := schedule.Calculate(decimal.NewFromInt(1010), domain.MethodCard, 0)

	require.NoError(t, err)
	assert.True(t, got.PlatformFee.Equal(decimal.NewFromInt(51)), "platform fee = %s", got.PlatformFee)
	assert.True(t, got.NetAmount.Equal(decimal.NewFromInt(959)))
}

func TestCalculate_Deterministic(t *testing.T) {
	schedule := fees.DefaultSchedule()
	gross := decimal.NewFromInt(31415)

	first, err := schedule.Calculate(gross, domain.MethodBankTransfer, 0)
	require.NoError(t, err)
	second, err := schedule.Calculate(gross, domain.MethodBankTransfer, 0)
	require.NoError(t, err)

	assert.True(t, first.PlatformFee.Equal(second.PlatformFee))
	assert.True(t, first.ProcessorFee.Equal(second.ProcessorFee))
	assert.True(t, first.NetAmount.Equal(second.NetAmount))
}

func TestCalculate_RejectsInvalidInput(t *testing.T) {
	schedule := fees.DefaultSchedule()

	_, err := schedule.Calculate(decimal.Zero, domain.MethodCard, 0)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = schedule.Calculate(decimal.NewFromInt(-500), domain.MethodCard, 0)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// Sub-minor-unit precision for a zero-exponent currency.
	_, err = schedule.Calculate(decimal.NewFromFloat(100.5), domain.MethodCard, 0)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = schedule.Calculate(decimal.NewFromInt(1000), domain.PaymentMethod("CASH"), 0)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRefundableAmount(t *testing.T) {
	schedule := fees.DefaultSchedule()

	// Card refunds return the full gross.
	card := schedule.RefundableAmount(decimal.NewFromInt(10000), domain.MethodCard)
	assert.True(t, card.Equal(decimal.NewFromInt(10000)))

	// The fixed bank-transfer fee is non-refundable.
	bank := schedule.RefundableAmount(decimal.NewFromInt(10000), domain.MethodBankTransfer)
	assert.True(t, bank.Equal(decimal.NewFromInt(9750)))
}
