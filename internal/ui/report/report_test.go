package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/mathverify/internal/grading"
	"github.com/abhisek/mathverify/internal/mastery"
	"github.com/abhisek/mathverify/internal/spacedrep"
	"github.com/abhisek/mathverify/internal/verify"
)

func TestResult_Partial(t *testing.T) {
	res := &grading.Result{
		PerItem: []grading.ItemOutcome{
			{ItemID: "q1", Kind: verify.KindEquation, Outcome: verify.Correct(), Credit: 1},
			{ItemID: "q2", Kind: verify.KindDerivative, Outcome: verify.Mismatch(), Credit: 0.5, Note: "Missing the inner factor."},
		},
		CorrectCount: 1.5,
		Total:        2,
		Verdict:      grading.VerdictPartial,
		Feedback:     grading.FeedbackPartial,
	}
	out := Result(res, 60)
	assert.Contains(t, out, "PARTIALLY CORRECT")
	assert.Contains(t, out, "1.50 / 2")
	assert.Contains(t, out, "q2")
	assert.Contains(t, out, "+0.50")
	assert.Contains(t, out, "Missing the inner factor.")
}

func TestResult_ErrorAsksForRetry(t *testing.T) {
	res := &grading.Result{
		PerItem: []grading.ItemOutcome{
			{ItemID: "v1", Kind: verify.KindVecDot, Outcome: verify.Failure("oracle-unavailable: refused")},
		},
		Total:    1,
		Verdict:  grading.VerdictError,
		Feedback: grading.FeedbackRetry,
	}
	out := Result(res, 0)
	assert.Contains(t, out, "PLEASE RETRY")
	assert.Contains(t, out, "oracle-unavailable")
	assert.NotContains(t, out, "INCORRECT")
	assert.NotContains(t, out, "Score")
}

func TestResult_UnresolvedItem(t *testing.T) {
	res := &grading.Result{
		PerItem: []grading.ItemOutcome{{ItemID: "q1", Outcome: verify.NoVerifyType("mystery")}},
		Total:   1,
		Verdict: grading.VerdictError,
	}
	assert.Contains(t, Result(res, 40), "unverifiable")
}

func TestGate(t *testing.T) {
	next := time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	assert.Contains(t, Gate(mastery.Updated(&mastery.ScheduleRecord{IntervalDays: 3, NextReviewAt: next})), "in 3 days")
	assert.Contains(t, Gate(mastery.Skipped("already updated today")), "unchanged: already updated today")
	assert.Contains(t, Gate(mastery.Failed("update schedule: boom")), "not updated: update schedule: boom")
}

func TestReviews(t *testing.T) {
	now := time.Date(2025, 6, 5, 12, 0, 0, 0, time.UTC)
	assert.Contains(t, Reviews(nil, now), "No schedules")

	out := Reviews([]*spacedrep.ReviewState{
		{UserID: "u1", SubjectID: "algebra", Stage: 2, NextReviewAt: now.Add(-time.Hour)},
		{UserID: "u1", SubjectID: "a-very-long-subject-identifier", Stage: 0, NextReviewAt: now.Add(48 * time.Hour)},
	}, now)
	assert.Contains(t, out, "algebra")
	assert.Contains(t, out, "due")
	assert.Contains(t, out, "not_due")
	assert.Contains(t, out, "a-very-long-subject…")
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "2", formatCount(2))
	assert.Equal(t, "0.25", formatCount(0.25))
}
