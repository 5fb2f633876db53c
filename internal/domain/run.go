package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutcomeStatus is the terminal state of one tenant within a run.
type OutcomeStatus string

const (
	StatusSucceeded OutcomeStatus = "SUCCEEDED"
	StatusSkipped   OutcomeStatus = "SKIPPED_ALREADY_DONE"
	StatusFailed    OutcomeStatus = "FAILED"
)

// FailureKind names the pipeline stage a tenant failed in.
type FailureKind string

const (
	FailureFetch    FailureKind = "ReviewFetchFailed"
	FailureClassify FailureKind = "ClassificationFailed"
	FailurePersist  FailureKind = "PersistenceFailed"
	FailureCanceled FailureKind = "RunCanceled"
)

// TenantOutcome records how one tenant fared in a batch run.
type TenantOutcome struct {
	TenantID TenantID      `json:"tenant_id"`
	Status   OutcomeStatus `json:"status"`
	Kind     FailureKind   `json:"failure_kind,omitempty"`
	Detail   string        `json:"detail,omitempty"`
}

// BatchRunReport is the in-memory record of one orchestrator invocation.
// It is handed to the report sink and discarded, never persisted.
type BatchRunReport struct {
	RunID      uuid.UUID       `json:"run_id"`
	Period     string          `json:"period"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Outcomes   []TenantOutcome `json:"outcomes"`
	RunError   string          `json:"run_error,omitempty"`
}

// CountByStatus returns how many outcomes ended in status.
func (r BatchRunReport) CountByStatus(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
