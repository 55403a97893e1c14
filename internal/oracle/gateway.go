// Package oracle talks to the external symbolic verification service. The
// service is authoritative when reachable; callers fall back to numeric
// checks when it is not.
package oracle

import (
	"context"
	"fmt"

	"github.com/abhisek/mathverify/internal/verify"
)

// Gateway is the verification oracle.
type Gateway interface {
	// VerifySingle checks one request.
	VerifySingle(ctx context.Context, kind verify.Kind, payload map[string]any) (verify.Outcome, error)

	// VerifyBatch checks several requests in one round-trip. Results are
	// positional: results[i] answers jobs[i].
	VerifyBatch(ctx context.Context, jobs []Job) ([]verify.Outcome, error)

	// SupportsBatch reports whether VerifyBatch is available.
	SupportsBatch(ctx context.Context) bool
}

// Job is one entry of a batch call.
type Job struct {
	Kind    verify.Kind    `json:"kind"`
	Payload map[string]any `json:"payload"`
}

// JobFor builds a Job from a request.
func JobFor(req verify.Request) Job {
	return Job{Kind: req.Kind, Payload: req.Payload()}
}

// ErrUnavailable indicates the oracle could not be reached or answered
// with a non-success status.
type ErrUnavailable struct {
	Status int
	Err    error
}

func (e *ErrUnavailable) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("oracle unavailable (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("oracle unavailable: %v", e.Err)
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

// ErrBadResponse indicates the oracle answered with a body that could not
// be decoded.
type ErrBadResponse struct {
	Body string
	Err  error
}

func (e *ErrBadResponse) Error() string {
	return fmt.Sprintf("oracle bad response: %v", e.Err)
}

func (e *ErrBadResponse) Unwrap() error { return e.Err }
