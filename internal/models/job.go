package models

import "math/big"

// JobState tracks a deployment job through the resolution pipeline. States
// only move forward; Resolved and Failed are terminal.
type JobState string

const (
	JobStatePending            JobState = "pending"
	JobStateSubmitted          JobState = "submitted"
	JobStateAwaitingSettlement JobState = "awaiting_settlement"
	JobStateResolvingLogs      JobState = "resolving_logs"
	JobStateResolved           JobState = "resolved"
	JobStateFailed             JobState = "failed"
)

// Terminal reports whether the state is Resolved or Failed.
func (s JobState) Terminal() bool {
	return s == JobStateResolved || s == JobStateFailed
}

// FundingSplit holds the two reward pools the escrow is funded with, in wei.
type FundingSplit struct {
	CorrectPool   *big.Int `json:"correct_pool" validate:"required"`
	IncorrectPool *big.Int `json:"incorrect_pool" validate:"required"`
}

// Total returns the sum of both pools.
func (f FundingSplit) Total() *big.Int {
	total := new(big.Int)
	if f.CorrectPool != nil {
		total.Add(total, f.CorrectPool)
	}
	if f.IncorrectPool != nil {
		total.Add(total, f.IncorrectPool)
	}
	return total
}

// AttemptCounters records per-stage attempt counts for diagnostics.
type AttemptCounters struct {
	SettlementPolls int `json:"settlement_polls"`
	LogFetchRounds  int `json:"log_fetch_rounds"`
	ProviderCalls   int `json:"provider_calls"`
}

// DeploymentJob is one logical escrow deployment request. The resolution
// orchestrator is the sole mutator of State and the resolution fields below
// it; everything above State is caller-supplied input.
type DeploymentJob struct {
	JobKey                    string       `json:"job_key" validate:"required"`
	CreatorAddress            string       `json:"creator_address" validate:"required"`
	AuthorizedRecorderAddress string       `json:"authorized_recorder_address" validate:"required"`
	FundingSplit              FundingSplit `json:"funding_split"`
	DurationSeconds           uint64       `json:"duration_seconds" validate:"required,gt=0"`

	State                JobState         `json:"state"`
	OperationHandle      string           `json:"operation_handle,omitempty"`
	SettledTransactionID string           `json:"settled_transaction_id,omitempty"`
	EscrowAddress        string           `json:"escrow_address,omitempty"`
	AttemptCounters      AttemptCounters  `json:"attempt_counters"`
	LastError            *ResolutionError `json:"last_error,omitempty"`
}
