package spacedrep

import (
	"time"

	"github.com/abhisek/mathverify/internal/store"
)

// ReviewState is the review view of one stored schedule.
type ReviewState struct {
	UserID       string    `json:"user_id"`
	SubjectID    string    `json:"subject_id"`
	Stage        int       `json:"stage"`
	NextReviewAt time.Time `json:"next_review_at"`
	Graduated    bool      `json:"graduated"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ReviewFromRecord builds the review view of rec.
func ReviewFromRecord(rec store.ScheduleRecord) *ReviewState {
	return &ReviewState{
		UserID:       rec.UserID,
		SubjectID:    rec.SubjectID,
		Stage:        rec.Stage,
		NextReviewAt: rec.NextReviewAt,
		Graduated:    rec.Stage >= GraduationStage,
		UpdatedAt:    rec.UpdatedAt,
	}
}

// IsDue returns true if the subject is due for review (at or past the review date).
func (rs *ReviewState) IsDue(now time.Time) bool {
	return !now.Before(rs.NextReviewAt)
}

// OverdueDays returns how many days past due the subject is. Returns 0 if not yet due.
func (rs *ReviewState) OverdueDays(now time.Time) float64 {
	if now.Before(rs.NextReviewAt) {
		return 0
	}
	return now.Sub(rs.NextReviewAt).Hours() / 24.0
}

// IsLapsed returns true once the subject is overdue by more than half its
// current interval.
func (rs *ReviewState) IsLapsed(now time.Time) bool {
	if !rs.IsDue(now) {
		return false
	}
	graceHours := float64(rs.CurrentIntervalDays()) * 0.5 * 24.0
	threshold := rs.NextReviewAt.Add(time.Duration(graceHours * float64(time.Hour)))
	return now.After(threshold)
}

// CurrentIntervalDays returns the current interval in days.
func (rs *ReviewState) CurrentIntervalDays() int {
	if rs.Graduated {
		return GraduatedIntervalDays
	}
	return IntervalDays(rs.Stage)
}

// ReviewStatus describes a subject's review status for display.
type ReviewStatus string

const (
	ReviewNotDue    ReviewStatus = "not_due"
	ReviewDue       ReviewStatus = "due"
	ReviewOverdue   ReviewStatus = "overdue"
	ReviewGraduated ReviewStatus = "graduated"
)

// Status returns the review status for display.
func (rs *ReviewState) Status(now time.Time) ReviewStatus {
	switch {
	case rs.Graduated && !rs.IsDue(now):
		return ReviewGraduated
	case rs.IsLapsed(now):
		return ReviewOverdue
	case rs.IsDue(now):
		return ReviewDue
	}
	return ReviewNotDue
}

// DaysUntilReview returns the number of days until the next review.
// Returns 0 if already due.
func (rs *ReviewState) DaysUntilReview(now time.Time) int {
	if rs.IsDue(now) {
		return 0
	}
	return int(rs.NextReviewAt.Sub(now).Hours()/24.0) + 1
}
