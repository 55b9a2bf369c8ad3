package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EscrowStatus indicates the state of an escrow transaction.
type EscrowStatus string

const (
	EscrowPending  EscrowStatus = "PENDING"
	EscrowFunded   EscrowStatus = "FUNDED"
	EscrowReleased EscrowStatus = "RELEASED"
	EscrowRefunded EscrowStatus = "REFUNDED"
)

// IsTerminal reports whether the status is absorbing (no further transitions).
func (s EscrowStatus) IsTerminal() bool {
	return s == EscrowReleased || s == EscrowRefunded
}

// CanTransitionTo reports whether moving from s to next is a legal forward transition.
// Transitions are monotonic: PENDING -> FUNDED -> {RELEASED | REFUNDED}.
func (s EscrowStatus) CanTransitionTo(next EscrowStatus) bool {
	switch s {
	case EscrowPending:
		return next == EscrowFunded
	case EscrowFunded:
		return next == EscrowReleased || next == EscrowRefunded
	default:
		return false
	}
}

// EscrowTransaction represents funds held by the platform between organizer
// funding and nurse payout (or refund). Exactly one non-terminal escrow may
// exist per job at any time; rows are never deleted.
type EscrowTransaction struct {
	EscrowID     string          `json:"escrowID"`     // Primary Key (UUID)
	JobID        string          `json:"jobID"`        // FK -> Job.jobID
	OrganizerID  string          `json:"organizerID"`  // Funding user
	NurseID      string          `json:"nurseID"`      // Payout destination (job's assigned nurse)
	GrossAmount  decimal.Decimal `json:"grossAmount"`  // Amount collected from the organizer
	PlatformFee  decimal.Decimal `json:"platformFee"`  // Platform's cut
	ProcessorFee decimal.Decimal `json:"processorFee"` // Payment-processor cut
	NetAmount    decimal.Decimal `json:"netAmount"`    // Nurse payout amount; gross = platform + processor + net
	CurrencyCode string          `json:"currencyCode"` // e.g. "JPY"
	Method       PaymentMethod   `json:"method"`       // How the organizer funded
	Status       EscrowStatus    `json:"status"`
	ChargeRef    string          `json:"chargeRef"`  // Gateway reference of the funding charge
	ReleasedAt   *time.Time      `json:"releasedAt"` // Set when status becomes RELEASED
	RefundedAt   *time.Time      `json:"refundedAt"` // Set when status becomes REFUNDED
	RefundReason string          `json:"refundReason"`
	AuditFields
}
