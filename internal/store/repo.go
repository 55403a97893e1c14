package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
	UserID string    // grading events only; empty matches all
}

// ScheduleRecord is the persisted mastery schedule for one user and subject.
type ScheduleRecord struct {
	UserID       string
	SubjectID    string
	Quality      int
	Stage        int
	IntervalDays int
	ReviewCount  int
	NextReviewAt time.Time
	UpdatedAt    time.Time
	AttemptID    string
}

// ScheduleRepo persists mastery schedules keyed by (user, subject).
type ScheduleRepo interface {
	// Get returns the record, or ErrNotFound.
	Get(ctx context.Context, userID, subjectID string) (*ScheduleRecord, error)

	// Upsert inserts or replaces the record for its (user, subject) key.
	Upsert(ctx context.Context, rec ScheduleRecord) error

	// List returns records ordered by next review time. An empty userID
	// lists every user.
	List(ctx context.Context, userID string) ([]ScheduleRecord, error)
}

// GradingEventData captures one graded exercise.
type GradingEventData struct {
	AttemptID    string
	UserID       string
	SubjectID    string
	Verdict      string
	CorrectCount float64
	Total        int
	Feedback     string
	// Items is the JSON-encoded per-item outcome list.
	Items string
}

// GradingEvent is a stored grading event.
type GradingEvent struct {
	Sequence  int64
	Timestamp time.Time
	GradingEventData
}

// OracleRequestEventData captures a single call to the verification oracle.
type OracleRequestEventData struct {
	Operation    string // "single" | "batch" | "version"
	Kind         string
	Jobs         int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// OracleRequestEvent is a stored oracle request event.
type OracleRequestEvent struct {
	Sequence  int64
	Timestamp time.Time
	OracleRequestEventData
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendOracleRequest records a verification oracle call.
	AppendOracleRequest(ctx context.Context, data OracleRequestEventData) error

	// AppendGrading records a graded exercise.
	AppendGrading(ctx context.Context, data GradingEventData) error

	// QueryGrading returns grading events, newest first.
	QueryGrading(ctx context.Context, opts QueryOpts) ([]GradingEvent, error)

	// QueryOracleRequests returns oracle request events, newest first.
	QueryOracleRequests(ctx context.Context, opts QueryOpts) ([]OracleRequestEvent, error)
}
