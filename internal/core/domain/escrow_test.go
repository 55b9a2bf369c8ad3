package domain_test

import (
	"testing"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestEscrowStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from domain.EscrowStatus
		to   domain.EscrowStatus
		want bool
	}{
		{name: "pending to funded", from: domain.EscrowPending, to: domain.EscrowFunded, want: true},
		{name: "pending to released skips funding", from: domain.EscrowPending, to: domain.EscrowReleased, want: false},
		{name: "funded to released", from: domain.EscrowFunded, to: domain.EscrowReleased, want: true},
		{name: "funded to refunded", from: domain.EscrowFunded, to: domain.EscrowRefunded, want: true},
		{name: "funded back to pending", from: domain.EscrowFunded, to: domain.EscrowPending, want: false},
		{name: "released is absorbing", from: domain.EscrowReleased, to: domain.EscrowRefunded, want: false},
		{name: "released cannot re-release", from: domain.EscrowReleased, to: domain.EscrowReleased, want: false},
		{name: "refunded is absorbing", from: domain.EscrowRefunded, to: domain.EscrowReleased, want: false},
		{name: "refunded back to funded", from: domain.EscrowRefunded, to: domain.EscrowFunded, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestEscrowStatus_IsTerminal(t *testing.T) {
	assert.False(t, domain.EscrowPending.IsTerminal())
	assert.False(t, domain.EscrowFunded.IsTerminal())
	assert.True(t, domain.EscrowReleased.IsTerminal())
	assert.True(t, domain.EscrowRefunded.IsTerminal())
}

func TestPaymentStatus_IsTerminal(t *testing.T) {
	assert.False(t, domain.PaymentScheduled.IsTerminal())
	assert.False(t, domain.PaymentProcessing.IsTerminal())
	assert.True(t, domain.PaymentCompleted.IsTerminal())
	assert.True(t, domain.PaymentFailed.IsTerminal())
}

func TestPaymentMethod_IsValid(t *testing.T) {
	assert.True(t, domain.MethodCard.IsValid())
	assert.True(t, domain.MethodBankTransfer.IsValid())
	assert.False(t, domain.PaymentMethod("CASH").IsValid())
	assert.False(t, domain.PaymentMethod("").IsValid())
}
