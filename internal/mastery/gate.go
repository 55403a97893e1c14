// Package mastery gates schedule updates so that each (user, subject) pair
// is mutated at most once per calendar day.
package mastery

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mathverify/internal/grading"
)

// MasteryRPC mutates the external review schedule.
type MasteryRPC interface {
	UpdateSchedule(ctx context.Context, userID, subjectID string, quality int, attemptID string) (*ScheduleRecord, error)
}

// SnapshotReader reads when a schedule was last mutated. A nil time means
// never.
type SnapshotReader interface {
	ReadLastUpdatedAt(ctx context.Context, userID, subjectID string) (*time.Time, error)
}

// Event is a request to update one schedule.
type Event struct {
	UserID     string
	SubjectID  string
	Quality    int
	AttemptID  string
	OccurredAt time.Time
}

// Gate forwards schedule updates to the RPC at most once per calendar day.
//
// The read-then-write sequence is not atomic: two concurrent events for
// the same pair on the same day may both pass the check.
type Gate struct {
	rpc          MasteryRPC
	snap         SnapshotReader
	clock        Clock
	loc          *time.Location
	eventQuality int
	logger       *zap.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock sets the gate's clock.
func WithClock(c Clock) Option {
	return func(g *Gate) {
		if c != nil {
			g.clock = c
		}
	}
}

// WithLocation sets the time zone that defines a calendar day.
func WithLocation(loc *time.Location) Option {
	return func(g *Gate) {
		if loc != nil {
			g.loc = loc
		}
	}
}

// WithEventQuality overrides the quality used by FinalizeSession.
func WithEventQuality(q int) Option {
	return func(g *Gate) { g.eventQuality = clampQuality(q) }
}

// WithLogger sets the gate's logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGate creates a Gate. Calendar days default to UTC.
func NewGate(rpc MasteryRPC, snap SnapshotReader, opts ...Option) *Gate {
	g := &Gate{
		rpc:          rpc,
		snap:         snap,
		clock:        SystemClock{},
		loc:          time.UTC,
		eventQuality: EventQuality,
		logger:       zap.NewNop(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// MaybeUpdate forwards ev to the RPC unless the schedule was already
// updated today. Errors are reported in the result, never returned.
func (g *Gate) MaybeUpdate(ctx context.Context, ev Event) Result {
	log := g.logger.With(zap.String("user", ev.UserID), zap.String("subject", ev.SubjectID))

	last, err := g.snap.ReadLastUpdatedAt(ctx, ev.UserID, ev.SubjectID)
	if err != nil {
		log.Warn("read last update failed", zap.Error(err))
		return Failed(fmt.Sprintf("read snapshot: %v", err))
	}

	now := g.clock.Now()
	if last != nil && g.sameDay(*last, now) {
		log.Debug("schedule already updated today", zap.Time("last", *last))
		return Skipped("already updated today")
	}

	q := clampQuality(ev.Quality)
	rec, err := g.rpc.UpdateSchedule(ctx, ev.UserID, ev.SubjectID, q, ev.AttemptID)
	if err != nil {
		log.Warn("schedule update failed", zap.Int("quality", q), zap.Error(err))
		return Failed(fmt.Sprintf("update schedule: %v", err))
	}
	if rec == nil {
		log.Warn("schedule update returned no record", zap.Int("quality", q))
		return Failed("empty schedule record")
	}
	log.Info("schedule updated", zap.Int("quality", q), zap.Int("interval_days", rec.IntervalDays))
	return Updated(rec)
}

// FinalizeSession records the end of a practice session for a subject.
func (g *Gate) FinalizeSession(ctx context.Context, userID, subjectID string) Result {
	return g.MaybeUpdate(ctx, Event{
		UserID:     userID,
		SubjectID:  subjectID,
		Quality:    g.eventQuality,
		OccurredAt: g.clock.Now(),
	})
}

// RecordSubmission records a graded submission. An error verdict never
// updates the schedule.
func (g *Gate) RecordSubmission(ctx context.Context, userID, subjectID, attemptID string, verdict grading.Verdict, hintsUsed int) Result {
	q, ok := SubmissionQuality(verdict, hintsUsed)
	if !ok {
		return Skipped(fmt.Sprintf("verdict %s", verdict))
	}
	return g.MaybeUpdate(ctx, Event{
		UserID:     userID,
		SubjectID:  subjectID,
		Quality:    q,
		AttemptID:  attemptID,
		OccurredAt: g.clock.Now(),
	})
}

func (g *Gate) sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(g.loc).Date()
	by, bm, bd := b.In(g.loc).Date()
	return ay == by && am == bm && ad == bd
}
