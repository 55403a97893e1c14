package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendGrading(ctx context.Context, data GradingEventData) error {
	items := data.Items
	if items == "" {
		items = "[]"
	}
	err := r.insertEvent(ctx, tableGradingEvents,
		[]string{
			"attempt_id", "user_id", "subject_id", "verdict",
			"correct_count", "total", "feedback", "items",
		},
		data.AttemptID, data.UserID, data.SubjectID, data.Verdict,
		data.CorrectCount, data.Total, data.Feedback, items,
	)
	if err != nil {
		return fmt.Errorf("save grading event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryGrading(ctx context.Context, opts QueryOpts) ([]GradingEvent, error) {
	q := r.s.builder().Select(
		"sequence", "timestamp", "attempt_id", "user_id", "subject_id",
		"verdict", "correct_count", "total", "feedback", "items",
	).From(entsql.Table(tableGradingEvents))
	if opts.UserID != "" {
		q.Where(entsql.EQ("user_id", opts.UserID))
	}
	rows, err := r.s.query(ctx, applyOpts(q, opts))
	if err != nil {
		return nil, fmt.Errorf("query grading events: %w", err)
	}
	defer rows.Close()

	var out []GradingEvent
	for rows.Next() {
		var (
			ev GradingEvent
			ts int64
		)
		if err := rows.Scan(
			&ev.Sequence, &ts, &ev.AttemptID, &ev.UserID, &ev.SubjectID,
			&ev.Verdict, &ev.CorrectCount, &ev.Total, &ev.Feedback, &ev.Items,
		); err != nil {
			return nil, fmt.Errorf("scan grading event: %w", err)
		}
		ev.Timestamp = fromUnix(ts)
		out = append(out, ev)
	}
	return out, rows.Err()
}
