package dto

import "time"

// BatchJobOutcome is the per-job result line of a payout batch run.
type BatchJobOutcome struct {
	JobID    string `json:"jobID"`
	EscrowID string `json:"escrowID,omitempty"`
	Outcome  string `json:"outcome"` // SUCCEEDED, FAILED or SKIPPED
	Detail   string `json:"detail,omitempty"`
}

// BatchPayoutReport summarizes a scheduled payout batch run.
type BatchPayoutReport struct {
	RunAt     time.Time         `json:"runAt"`
	Cutoff    time.Time         `json:"cutoff"`
	Processed int               `json:"processed"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Skipped   int               `json:"skipped"`
	Outcomes  []BatchJobOutcome `json:"outcomes"`
}
