package store

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
)

// Table names.
const (
	tableSchedules      = "mastery_schedules"
	tableGradingEvents  = "grading_events"
	tableOracleEvents   = "oracle_request_events"
	tableLLMEvents      = "llm_request_events"
	tableGlobalSequence = "global_sequence"
)

// schema lists the DDL statements applied on Open. {{pk}} expands to the
// dialect's auto-increment primary key.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS mastery_schedules (
		user_id        TEXT    NOT NULL,
		subject_id     TEXT    NOT NULL,
		quality        BIGINT  NOT NULL,
		stage          BIGINT  NOT NULL,
		interval_days  BIGINT  NOT NULL,
		review_count   BIGINT  NOT NULL DEFAULT 0,
		next_review_at BIGINT  NOT NULL,
		updated_at     BIGINT  NOT NULL,
		attempt_id     TEXT    NOT NULL DEFAULT '',
		PRIMARY KEY (user_id, subject_id)
	)`,
	`CREATE TABLE IF NOT EXISTS grading_events (
		id            {{pk}},
		sequence      BIGINT  NOT NULL UNIQUE,
		timestamp     BIGINT  NOT NULL,
		attempt_id    TEXT    NOT NULL,
		user_id       TEXT    NOT NULL,
		subject_id    TEXT    NOT NULL,
		verdict       TEXT    NOT NULL,
		correct_count DOUBLE PRECISION NOT NULL,
		total         BIGINT  NOT NULL,
		feedback      TEXT    NOT NULL DEFAULT '',
		items         TEXT    NOT NULL DEFAULT '[]'
	)`,
	`CREATE TABLE IF NOT EXISTS oracle_request_events (
		id            {{pk}},
		sequence      BIGINT  NOT NULL UNIQUE,
		timestamp     BIGINT  NOT NULL,
		operation     TEXT    NOT NULL,
		kind          TEXT    NOT NULL DEFAULT '',
		jobs          BIGINT  NOT NULL,
		latency_ms    BIGINT  NOT NULL,
		success       BOOLEAN NOT NULL,
		error_message TEXT    NOT NULL DEFAULT '',
		request_body  TEXT    NOT NULL DEFAULT '',
		response_body TEXT    NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            {{pk}},
		sequence      BIGINT  NOT NULL UNIQUE,
		timestamp     BIGINT  NOT NULL,
		provider      TEXT    NOT NULL,
		model         TEXT    NOT NULL,
		purpose       TEXT    NOT NULL,
		input_tokens  BIGINT  NOT NULL,
		output_tokens BIGINT  NOT NULL,
		latency_ms    BIGINT  NOT NULL,
		success       BOOLEAN NOT NULL,
		error_message TEXT    NOT NULL DEFAULT '',
		request_body  TEXT    NOT NULL DEFAULT '',
		response_body TEXT    NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS grading_events_user_subject ON grading_events (user_id, subject_id)`,
	`CREATE INDEX IF NOT EXISTS mastery_schedules_next_review ON mastery_schedules (user_id, next_review_at)`,
}

// migrate creates the tables if they do not exist.
func migrate(ctx context.Context, s *Store) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == dialect.Postgres {
		pk = "BIGSERIAL PRIMARY KEY"
	}
	for _, stmt := range schema {
		stmt = strings.ReplaceAll(stmt, "{{pk}}", pk)
		if err := s.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
