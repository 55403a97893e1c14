package mastery

import "time"

// Status is the outcome class of a gated update.
type Status string

const (
	StatusUpdated Status = "updated"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// ScheduleRecord is the schedule state returned by the schedule RPC.
type ScheduleRecord struct {
	UserID       string    `json:"user_id"`
	SubjectID    string    `json:"subject_id"`
	Quality      int       `json:"quality"`
	Stage        int       `json:"stage"`
	IntervalDays int       `json:"interval_days"`
	NextReviewAt time.Time `json:"next_review_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	AttemptID    string    `json:"attempt_id,omitempty"`
}

// Result is exactly one of Updated, Skipped or Failed. Record is set only
// when Status is StatusUpdated.
type Result struct {
	Status Status          `json:"status"`
	Record *ScheduleRecord `json:"record,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

// Updated builds an updated result.
func Updated(rec *ScheduleRecord) Result {
	return Result{Status: StatusUpdated, Record: rec}
}

// Skipped builds a skipped result.
func Skipped(reason string) Result {
	return Result{Status: StatusSkipped, Reason: reason}
}

// Failed builds a failed result.
func Failed(reason string) Result {
	return Result{Status: StatusFailed, Reason: reason}
}
