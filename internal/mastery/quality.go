package mastery

import "github.com/abhisek/mathverify/internal/grading"

// Quality bounds for the schedule formula.
const (
	MinQuality = 0
	MaxQuality = 5
)

// EventQuality is used for practice-finalize events, which carry no
// verdict of their own.
const EventQuality = 3

// SubmissionQuality derives a quality from a verdict and hint usage. The
// second return is false when the verdict must not update the schedule.
func SubmissionQuality(verdict grading.Verdict, hintsUsed int) (int, bool) {
	switch verdict {
	case grading.VerdictCorrect:
		if hintsUsed > 0 {
			return MaxQuality - 1, true
		}
		return MaxQuality, true
	case grading.VerdictPartial:
		return 3, true
	case grading.VerdictWrong:
		return 2, true
	}
	return 0, false
}

func clampQuality(q int) int {
	return min(max(q, MinQuality), MaxQuality)
}
