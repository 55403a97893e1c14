package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var scheduleColumns = []string{
	"user_id", "subject_id", "quality", "stage", "interval_days",
	"review_count", "next_review_at", "updated_at", "attempt_id",
}

type scheduleRepo struct {
	s *Store
}

func (r *scheduleRepo) Get(ctx context.Context, userID, subjectID string) (*ScheduleRecord, error) {
	q := r.s.builder().Select(scheduleColumns...).
		From(entsql.Table(tableSchedules)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("subject_id", subjectID),
		))
	recs, err := r.scan(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return &recs[0], nil
}

func (r *scheduleRepo) Upsert(ctx context.Context, rec ScheduleRecord) error {
	q := r.s.builder().Insert(tableSchedules).
		Columns(scheduleColumns...).
		Values(
			rec.UserID, rec.SubjectID, rec.Quality, rec.Stage, rec.IntervalDays,
			rec.ReviewCount, toUnix(rec.NextReviewAt), toUnix(rec.UpdatedAt), rec.AttemptID,
		).
		OnConflict(
			entsql.ConflictColumns("user_id", "subject_id"),
			entsql.ResolveWithNewValues(),
		)
	if err := r.s.exec(ctx, q); err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepo) List(ctx context.Context, userID string) ([]ScheduleRecord, error) {
	q := r.s.builder().Select(scheduleColumns...).
		From(entsql.Table(tableSchedules)).
		OrderBy("next_review_at", "user_id", "subject_id")
	if userID != "" {
		q.Where(entsql.EQ("user_id", userID))
	}
	recs, err := r.scan(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return recs, nil
}

func (r *scheduleRepo) scan(ctx context.Context, q *entsql.Selector) ([]ScheduleRecord, error) {
	rows, err := r.s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScheduleRecord
	for rows.Next() {
		var (
			rec          ScheduleRecord
			next, update int64
		)
		if err := rows.Scan(
			&rec.UserID, &rec.SubjectID, &rec.Quality, &rec.Stage, &rec.IntervalDays,
			&rec.ReviewCount, &next, &update, &rec.AttemptID,
		); err != nil {
			return nil, err
		}
		rec.NextReviewAt = fromUnix(next)
		rec.UpdatedAt = fromUnix(update)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Timestamps are stored as UTC unix nanoseconds so both dialects round-trip
// them exactly.
func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
