package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a terminal resolution failure. Raw transport errors
// never cross the orchestrator boundary without being mapped to one of these.
type ErrorKind string

const (
	// ErrorKindLockContention means another resolution is already in flight
	// for the job key. Callers should treat this as "in progress".
	ErrorKindLockContention ErrorKind = "lock_contention"
	// ErrorKindSubmissionFailed means the relay rejected or errored on the
	// initial execute call.
	ErrorKindSubmissionFailed ErrorKind = "submission_failed"
	// ErrorKindSettlementTimeout means polling exhausted its attempt budget
	// without observing settlement. The on-chain operation may still succeed
	// later; this is "give up waiting", not proof of failure.
	ErrorKindSettlementTimeout ErrorKind = "settlement_timeout"
	// ErrorKindLogsUnavailable means every provider failed across the full
	// outer retry budget.
	ErrorKindLogsUnavailable ErrorKind = "logs_unavailable"
	// ErrorKindEventNotFound means logs were retrieved but contained no
	// matching deployment event.
	ErrorKindEventNotFound ErrorKind = "event_not_found"
	// ErrorKindValidationMismatch means a deployment event was found but its
	// creator or contract type did not match the job.
	ErrorKindValidationMismatch ErrorKind = "validation_mismatch"
	// ErrorKindCancelled means the caller abandoned the resolution. The
	// submitted operation may still settle on-chain later.
	ErrorKindCancelled ErrorKind = "cancelled"
)

// ResolutionError is the typed failure a resolution terminates with. It
// carries enough context (handle, transaction id, providers tried, attempt
// counts) to investigate without re-running the pipeline.
type ResolutionError struct {
	Kind            ErrorKind `json:"kind"`
	Detail          string    `json:"detail"`
	OperationHandle string    `json:"operation_handle,omitempty"`
	TransactionID   string    `json:"transaction_id,omitempty"`
	ProvidersTried  []string  `json:"providers_tried,omitempty"`
	Attempts        int       `json:"attempts,omitempty"`

	cause error
}

// NewResolutionError builds a ResolutionError wrapping an optional cause.
func NewResolutionError(kind ErrorKind, detail string, cause error) *ResolutionError {
	return &ResolutionError{Kind: kind, Detail: detail, cause: cause}
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Detail)
	if e.OperationHandle != "" {
		fmt.Fprintf(&b, " (handle=%s", e.OperationHandle)
		if e.TransactionID != "" {
			fmt.Fprintf(&b, " tx=%s", e.TransactionID)
		}
		b.WriteString(")")
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error {
	return e.cause
}

// Retryable reports whether a caller might reasonably retry later.
// LockContention clears when the in-flight resolution finishes and
// SettlementTimeout may clear once the relay catches up; every other kind
// indicates a condition that will not resolve itself.
func (e *ResolutionError) Retryable() bool {
	return e.Kind == ErrorKindLockContention || e.Kind == ErrorKindSettlementTimeout
}

// KindOf extracts the ErrorKind from err, or empty string if err is not a
// ResolutionError.
func KindOf(err error) ErrorKind {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}
