package mastery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abhisek/mathverify/internal/grading"
)

// memSchedule implements MasteryRPC and SnapshotReader in memory.
type memSchedule struct {
	clock     Clock
	records   map[string]*ScheduleRecord
	calls     int
	updateErr error
	readErr   error
	noRecord  bool
}

func newMemSchedule(c Clock) *memSchedule {
	return &memSchedule{clock: c, records: make(map[string]*ScheduleRecord)}
}

func (m *memSchedule) UpdateSchedule(_ context.Context, userID, subjectID string, quality int, attemptID string) (*ScheduleRecord, error) {
	m.calls++
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	if m.noRecord {
		return nil, nil
	}
	rec := &ScheduleRecord{
		UserID:       userID,
		SubjectID:    subjectID,
		Quality:      quality,
		IntervalDays: 1,
		UpdatedAt:    m.clock.Now(),
		AttemptID:    attemptID,
	}
	m.records[userID+"/"+subjectID] = rec
	return rec, nil
}

func (m *memSchedule) ReadLastUpdatedAt(_ context.Context, userID, subjectID string) (*time.Time, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	rec, ok := m.records[userID+"/"+subjectID]
	if !ok {
		return nil, nil
	}
	t := rec.UpdatedAt
	return &t, nil
}

func newTestGate(start time.Time, opts ...Option) (*Gate, *memSchedule, *FixedClock) {
	clock := &FixedClock{T: start}
	mem := newMemSchedule(clock)
	g := NewGate(mem, mem, append([]Option{WithClock(clock)}, opts...)...)
	return g, mem, clock
}

func TestMaybeUpdate_OncePerDay(t *testing.T) {
	g, mem, clock := newTestGate(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first := g.MaybeUpdate(ctx, Event{UserID: "u1", SubjectID: "algebra", Quality: 4})
	if first.Status != StatusUpdated {
		t.Fatalf("first status = %s, want updated", first.Status)
	}
	if first.Record == nil || first.Record.Quality != 4 {
		t.Fatalf("first record = %+v, want quality 4", first.Record)
	}

	clock.Advance(6 * time.Hour)
	second := g.MaybeUpdate(ctx, Event{UserID: "u1", SubjectID: "algebra", Quality: 0})
	if second.Status != StatusSkipped {
		t.Errorf("second status = %s, want skipped", second.Status)
	}
	if second.Record != nil {
		t.Error("skipped result should carry no record")
	}
	if mem.calls != 1 {
		t.Errorf("rpc calls = %d, want 1", mem.calls)
	}
}

func TestMaybeUpdate_IndependentSubjects(t *testing.T) {
	g, mem, _ := newTestGate(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	g.MaybeUpdate(ctx, Event{UserID: "u1", SubjectID: "algebra", Quality: 4})
	if r := g.MaybeUpdate(ctx, Event{UserID: "u1", SubjectID: "geometry", Quality: 4}); r.Status != StatusUpdated {
		t.Errorf("other subject status = %s, want updated", r.Status)
	}
	if r := g.MaybeUpdate(ctx, Event{UserID: "u2", SubjectID: "algebra", Quality: 4}); r.Status != StatusUpdated {
		t.Errorf("other user status = %s, want updated", r.Status)
	}
	if mem.calls != 3 {
		t.Errorf("rpc calls = %d, want 3", mem.calls)
	}
}

func TestMaybeUpdate_NextDayAllowed(t *testing.T) {
	g, _, clock := newTestGate(time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC))
	ctx := context.Background()

	g.MaybeUpdate(ctx, Event{UserID: "u1", SubjectID: "algebra", Quality: 3})
	clock.Advance(time.Hour)
	if r := g.MaybeUpdate(ctx, Event{UserID: "u1", SubjectID: "algebra", Quality: 3}); r.Status != StatusUpdated {
		t.Errorf("after midnight status = %s, want updated", r.Status)
	}
}

func TestMaybeUpdate_CalendarDayInLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)

	// 14:30 UTC and 15:30 UTC straddle midnight in UTC+9.
	g, _, clock := newTestGate(time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC), WithLocation(loc))
	ctx := context.Background()

	g.MaybeUpdate(ctx, Event{UserID: "u1", SubjectID: "algebra", Quality: 3})
	clock.Advance(time.Hour)
	if r := g.MaybeUpdate(ctx, Event{UserID: "u1", SubjectID: "algebra", Quality: 3}); r.Status != StatusUpdated {
		t.Errorf("status = %s, want updated across local midnight", r.Status)
	}

	// Same instants are the same UTC day.
	gu, _, clockU := newTestGate(time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC))
	gu.MaybeUpdate(ctx, Event{UserID: "u1", SubjectID: "algebra", Quality: 3})
	clockU.Advance(time.Hour)
	if r := gu.MaybeUpdate(ctx, Event{UserID: "u1", SubjectID: "algebra", Quality: 3}); r.Status != StatusSkipped {
		t.Errorf("status = %s, want skipped within the UTC day", r.Status)
	}
}

func TestMaybeUpdate_SnapshotErrorFails(t *testing.T) {
	g, mem, _ := newTestGate(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	mem.readErr = errors.New("db locked")

	r := g.MaybeUpdate(context.Background(), Event{UserID: "u1", SubjectID: "algebra", Quality: 5})
	if r.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", r.Status)
	}
	if mem.calls != 0 {
		t.Errorf("rpc calls = %d, want 0", mem.calls)
	}
}

func TestMaybeUpdate_RPCErrorFails(t *testing.T) {
	g, mem, _ := newTestGate(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	mem.updateErr = errors.New("rpc down")

	r := g.MaybeUpdate(context.Background(), Event{UserID: "u1", SubjectID: "algebra", Quality: 5})
	if r.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", r.Status)
	}
	if r.Reason != "update schedule: rpc down" {
		t.Errorf("reason = %q", r.Reason)
	}
}

func TestMaybeUpdate_EmptyRecordFails(t *testing.T) {
	g, mem, _ := newTestGate(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	mem.noRecord = true

	r := g.MaybeUpdate(context.Background(), Event{UserID: "u1", SubjectID: "algebra", Quality: 5})
	if r.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", r.Status)
	}
	if r.Reason != "empty schedule record" {
		t.Errorf("reason = %q", r.Reason)
	}
	if r.Record != nil {
		t.Errorf("record = %+v, want nil", r.Record)
	}
}

func TestMaybeUpdate_ClampsQuality(t *testing.T) {
	g, _, clock := newTestGate(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	r := g.MaybeUpdate(ctx, Event{UserID: "u1", SubjectID: "a", Quality: 9})
	if r.Record.Quality != MaxQuality {
		t.Errorf("quality = %d, want %d", r.Record.Quality, MaxQuality)
	}
	clock.Advance(24 * time.Hour)
	r = g.MaybeUpdate(ctx, Event{UserID: "u1", SubjectID: "a", Quality: -3})
	if r.Record.Quality != MinQuality {
		t.Errorf("quality = %d, want %d", r.Record.Quality, MinQuality)
	}
}

func TestFinalizeSession_TwiceSameDay(t *testing.T) {
	g, mem, clock := newTestGate(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first := g.FinalizeSession(ctx, "u1", "trig")
	if first.Status != StatusUpdated || first.Record.Quality != EventQuality {
		t.Fatalf("first = %+v, want updated with quality %d", first, EventQuality)
	}
	stamp := mem.records["u1/trig"].UpdatedAt

	clock.Advance(2 * time.Hour)
	second := g.FinalizeSession(ctx, "u1", "trig")
	if second.Status != StatusSkipped {
		t.Errorf("second status = %s, want skipped", second.Status)
	}
	if !mem.records["u1/trig"].UpdatedAt.Equal(stamp) {
		t.Error("updatedAt changed on skipped finalize")
	}
}

func TestRecordSubmission(t *testing.T) {
	tests := []struct {
		name    string
		verdict grading.Verdict
		hints   int
		status  Status
		quality int
	}{
		{"correct no hints", grading.VerdictCorrect, 0, StatusUpdated, 5},
		{"correct with hint", grading.VerdictCorrect, 1, StatusUpdated, 4},
		{"partial", grading.VerdictPartial, 0, StatusUpdated, 3},
		{"wrong", grading.VerdictWrong, 2, StatusUpdated, 2},
		{"error", grading.VerdictError, 0, StatusSkipped, 0},
		{"unknown", grading.Verdict("maybe"), 0, StatusSkipped, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, mem, _ := newTestGate(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
			r := g.RecordSubmission(context.Background(), "u1", "calc", "att-1", tt.verdict, tt.hints)
			if r.Status != tt.status {
				t.Fatalf("status = %s, want %s", r.Status, tt.status)
			}
			if tt.status != StatusUpdated {
				if mem.calls != 0 {
					t.Errorf("rpc calls = %d, want 0", mem.calls)
				}
				return
			}
			if r.Record.Quality != tt.quality {
				t.Errorf("quality = %d, want %d", r.Record.Quality, tt.quality)
			}
			if r.Record.AttemptID != "att-1" {
				t.Errorf("attempt = %q, want att-1", r.Record.AttemptID)
			}
		})
	}
}

func TestSubmissionQuality_HintIsOneBelowMax(t *testing.T) {
	q, ok := SubmissionQuality(grading.VerdictCorrect, 1)
	if !ok || q != MaxQuality-1 {
		t.Errorf("SubmissionQuality(correct, 1) = %d, %v; want %d, true", q, ok, MaxQuality-1)
	}
}
