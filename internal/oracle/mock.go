package oracle

import (
	"context"
	"errors"
	"sync"

	"github.com/abhisek/mathverify/internal/verify"
)

var errQueueEmpty = errors.New("no canned result queued")

// MockResult is a canned answer for one MockGateway call. Single calls
// consume Outcome; batch calls consume Outcomes.
type MockResult struct {
	Outcome  verify.Outcome
	Outcomes []verify.Outcome
	Err      error
}

// MockGateway returns canned results in FIFO order and records every call.
// An empty queue yields *ErrUnavailable.
type MockGateway struct {
	mu      sync.Mutex
	results []MockResult
	Batch   bool

	Singles []Job
	Batches [][]Job
}

// NewMockGateway creates a MockGateway with the given canned results.
func NewMockGateway(results ...MockResult) *MockGateway {
	return &MockGateway{results: results}
}

func (m *MockGateway) VerifySingle(_ context.Context, kind verify.Kind, payload map[string]any) (verify.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Singles = append(m.Singles, Job{Kind: kind, Payload: payload})
	r, ok := m.next()
	if !ok {
		return verify.Outcome{}, &ErrUnavailable{Err: errQueueEmpty}
	}
	return r.Outcome, r.Err
}

func (m *MockGateway) VerifyBatch(_ context.Context, jobs []Job) ([]verify.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Batches = append(m.Batches, jobs)
	r, ok := m.next()
	if !ok {
		return nil, &ErrUnavailable{Err: errQueueEmpty}
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Outcomes, nil
}

func (m *MockGateway) SupportsBatch(context.Context) bool {
	return m.Batch
}

// AddResult appends a canned result to the queue.
func (m *MockGateway) AddResult(r MockResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, r)
}

// CallCount returns the number of single and batch calls made.
func (m *MockGateway) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Singles) + len(m.Batches)
}

func (m *MockGateway) next() (MockResult, bool) {
	if len(m.results) == 0 {
		return MockResult{}, false
	}
	r := m.results[0]
	m.results = m.results[1:]
	return r, true
}
