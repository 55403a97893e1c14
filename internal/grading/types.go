// Package grading turns per-item verification outcomes for a multi-part
// exercise into a single verdict with partial credit.
package grading

import (
	"context"
	"encoding/json"

	"github.com/abhisek/mathverify/internal/normalize"
	"github.com/abhisek/mathverify/internal/store"
	"github.com/abhisek/mathverify/internal/verify"
)

// Verdict is the exercise-level result.
type Verdict string

const (
	VerdictCorrect Verdict = "correct"
	VerdictPartial Verdict = "partial"
	VerdictWrong   Verdict = "wrong"
	VerdictError   Verdict = "error"
)

// Item is one gradable part of an exercise. A zero Kind means no
// verification kind could be resolved for it.
type Item struct {
	ID           string
	SkillID      string
	Kind         verify.Kind
	Payload      map[string]any
	RawUserValue string
	ParsedSteps  []string
}

// Request builds the verification request for the item.
func (it Item) Request() verify.Request {
	return verify.NewRequest(it.Kind, it.SkillID, it.Payload)
}

// PrepareItem routes skillID, normalizes the problem and answer, and
// returns the resulting item. A non-empty kindOverride replaces routing;
// an override outside the known set leaves the item unresolved.
func PrepareItem(b *normalize.Builder, id, skillID string, kindOverride string, problem map[string]any, answer any) Item {
	kind := verify.Route(skillID)
	if kindOverride != "" {
		kind = verify.Kind(kindOverride)
	}
	ans := normalize.ParseAnswer(answer)
	it := Item{
		ID:           id,
		SkillID:      skillID,
		RawUserValue: ans.Final,
		ParsedSteps:  ans.Steps,
	}
	if !kind.Valid() {
		return it
	}
	it.Kind = kind
	it.Payload = b.Build(kind, skillID, problem, answer).Payload()
	return it
}

// StepDetail is a scorer's judgement of one working step.
type StepDetail struct {
	Step    string `json:"step"`
	Correct bool   `json:"correct"`
	Comment string `json:"comment,omitempty"`
}

// Credit is the partial credit awarded to a wrong item.
type Credit struct {
	Delta       float64      `json:"delta"`
	Note        string       `json:"note,omitempty"`
	StepsDetail []StepDetail `json:"steps_detail,omitempty"`
}

// PartialCreditScorer awards fractional credit to items that failed
// verification. It is never called for correct items.
type PartialCreditScorer interface {
	Score(ctx context.Context, item Item, outcome verify.Outcome) (Credit, error)
}

// NoCredit is a scorer that never awards credit.
type NoCredit struct{}

func (NoCredit) Score(context.Context, Item, verify.Outcome) (Credit, error) {
	return Credit{}, nil
}

// ItemOutcome is the graded state of one item.
type ItemOutcome struct {
	ItemID      string         `json:"item_id"`
	SkillID     string         `json:"skill_id"`
	Kind        verify.Kind    `json:"kind,omitempty"`
	Outcome     verify.Outcome `json:"outcome"`
	Credit      float64        `json:"credit"`
	Note        string         `json:"note,omitempty"`
	StepsDetail []StepDetail   `json:"steps_detail,omitempty"`
}

// Result is the graded exercise. 0 <= CorrectCount <= Total always holds.
type Result struct {
	PerItem      []ItemOutcome `json:"per_item"`
	CorrectCount float64       `json:"correct_count"`
	Total        int           `json:"total"`
	Verdict      Verdict       `json:"verdict"`
	Feedback     string        `json:"feedback"`
	Notes        []string      `json:"notes,omitempty"`
}

// Event converts the result into a grading event for the store.
func (r *Result) Event(attemptID, userID, subjectID string) store.GradingEventData {
	items, err := json.Marshal(r.PerItem)
	if err != nil {
		items = []byte("[]")
	}
	return store.GradingEventData{
		AttemptID:    attemptID,
		UserID:       userID,
		SubjectID:    subjectID,
		Verdict:      string(r.Verdict),
		CorrectCount: r.CorrectCount,
		Total:        r.Total,
		Feedback:     r.Feedback,
		Items:        string(items),
	}
}
