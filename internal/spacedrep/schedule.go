package spacedrep

// BaseIntervals defines the expanding interval schedule in days.
// Stage 0 is the first review after a passing update.
var BaseIntervals = []int{1, 3, 7, 14, 30, 60}

// MaxStage is the highest stage index in BaseIntervals.
const MaxStage = 5

// GraduationStage is reached after passing every base stage (0-5).
const GraduationStage = 6

// GraduatedIntervalDays is the review interval for graduated subjects.
const GraduatedIntervalDays = 90

// PassingQuality is the lowest quality that advances a subject's stage.
const PassingQuality = 3

// Advance applies one update of the given quality to a schedule at stage.
// first is true when the subject has never been scheduled. It returns the
// new stage and the days until the next review.
func Advance(stage, quality int, first bool) (int, int) {
	switch {
	case quality < PassingQuality:
		stage = 0
	case first:
		stage = 0
	default:
		stage = min(stage+1, GraduationStage)
	}
	return stage, IntervalDays(stage)
}

// IntervalDays returns the review interval for stage.
func IntervalDays(stage int) int {
	if stage >= GraduationStage {
		return GraduatedIntervalDays
	}
	if stage < 0 {
		return BaseIntervals[0]
	}
	if stage > MaxStage {
		return BaseIntervals[MaxStage]
	}
	return BaseIntervals[stage]
}
