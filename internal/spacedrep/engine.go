// Package spacedrep is the local review-schedule engine. It backs the
// mastery gate's schedule RPC and snapshot reader with the store.
package spacedrep

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/mathverify/internal/mastery"
	"github.com/abhisek/mathverify/internal/store"
)

// Engine applies the stage/interval schedule to stored records.
type Engine struct {
	repo   store.ScheduleRepo
	clock  mastery.Clock
	logger *zap.Logger
}

// NewEngine creates an Engine over repo. A nil clock uses the wall clock.
func NewEngine(repo store.ScheduleRepo, clock mastery.Clock, logger *zap.Logger) *Engine {
	if clock == nil {
		clock = mastery.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{repo: repo, clock: clock, logger: logger}
}

// UpdateSchedule applies one update and persists the result.
func (e *Engine) UpdateSchedule(ctx context.Context, userID, subjectID string, quality int, attemptID string) (*mastery.ScheduleRecord, error) {
	if quality < mastery.MinQuality || quality > mastery.MaxQuality {
		return nil, fmt.Errorf("quality %d out of range", quality)
	}

	prev, err := e.repo.Get(ctx, userID, subjectID)
	first := errors.Is(err, store.ErrNotFound)
	if err != nil && !first {
		return nil, fmt.Errorf("load schedule: %w", err)
	}

	rec := store.ScheduleRecord{UserID: userID, SubjectID: subjectID}
	if !first {
		rec = *prev
	}
	now := e.clock.Now().UTC()
	rec.Stage, rec.IntervalDays = Advance(rec.Stage, quality, first)
	rec.Quality = quality
	rec.ReviewCount++
	rec.NextReviewAt = now.AddDate(0, 0, rec.IntervalDays)
	rec.UpdatedAt = now
	rec.AttemptID = attemptID

	if err := e.repo.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("save schedule: %w", err)
	}
	e.logger.Debug("schedule advanced",
		zap.String("user", userID),
		zap.String("subject", subjectID),
		zap.Int("quality", quality),
		zap.Int("stage", rec.Stage),
		zap.Int("interval_days", rec.IntervalDays))
	return toMastery(rec), nil
}

// ReadLastUpdatedAt returns when the schedule was last updated, or nil if
// it has never been.
func (e *Engine) ReadLastUpdatedAt(ctx context.Context, userID, subjectID string) (*time.Time, error) {
	rec, err := e.repo.Get(ctx, userID, subjectID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	t := rec.UpdatedAt
	return &t, nil
}

// Reviews returns the review view of every schedule for userID. An empty
// userID returns every user's schedules.
func (e *Engine) Reviews(ctx context.Context, userID string) ([]*ReviewState, error) {
	recs, err := e.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	out := make([]*ReviewState, len(recs))
	for i, r := range recs {
		out[i] = ReviewFromRecord(r)
	}
	return out, nil
}

// DueSubjects returns the subjects of userID due for review at now, most
// overdue first.
func (e *Engine) DueSubjects(ctx context.Context, userID string, now time.Time) ([]string, error) {
	reviews, err := e.Reviews(ctx, userID)
	if err != nil {
		return nil, err
	}

	type dueSubject struct {
		id      string
		overdue float64
	}
	var due []dueSubject
	for _, rs := range reviews {
		if rs.IsDue(now) {
			due = append(due, dueSubject{id: rs.SubjectID, overdue: rs.OverdueDays(now)})
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].overdue != due[j].overdue {
			return due[i].overdue > due[j].overdue
		}
		return due[i].id < due[j].id
	})

	ids := make([]string, len(due))
	for i, d := range due {
		ids[i] = d.id
	}
	return ids, nil
}

func toMastery(r store.ScheduleRecord) *mastery.ScheduleRecord {
	return &mastery.ScheduleRecord{
		UserID:       r.UserID,
		SubjectID:    r.SubjectID,
		Quality:      r.Quality,
		Stage:        r.Stage,
		IntervalDays: r.IntervalDays,
		NextReviewAt: r.NextReviewAt,
		UpdatedAt:    r.UpdatedAt,
		AttemptID:    r.AttemptID,
	}
}
