package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendOracleRequest(ctx context.Context, data OracleRequestEventData) error {
	err := r.insertEvent(ctx, tableOracleEvents,
		[]string{
			"operation", "kind", "jobs", "latency_ms", "success",
			"error_message", "request_body", "response_body",
		},
		data.Operation, data.Kind, data.Jobs, data.LatencyMs, data.Success,
		data.ErrorMessage, data.RequestBody, data.ResponseBody,
	)
	if err != nil {
		return fmt.Errorf("save oracle request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryOracleRequests(ctx context.Context, opts QueryOpts) ([]OracleRequestEvent, error) {
	q := r.s.builder().Select(
		"sequence", "timestamp", "operation", "kind", "jobs", "latency_ms",
		"success", "error_message", "request_body", "response_body",
	).From(entsql.Table(tableOracleEvents))
	rows, err := r.s.query(ctx, applyOpts(q, opts))
	if err != nil {
		return nil, fmt.Errorf("query oracle events: %w", err)
	}
	defer rows.Close()

	var out []OracleRequestEvent
	for rows.Next() {
		var (
			ev OracleRequestEvent
			ts int64
		)
		if err := rows.Scan(
			&ev.Sequence, &ts, &ev.Operation, &ev.Kind, &ev.Jobs, &ev.LatencyMs,
			&ev.Success, &ev.ErrorMessage, &ev.RequestBody, &ev.ResponseBody,
		); err != nil {
			return nil, fmt.Errorf("scan oracle event: %w", err)
		}
		ev.Timestamp = fromUnix(ts)
		out = append(out, ev)
	}
	return out, rows.Err()
}
