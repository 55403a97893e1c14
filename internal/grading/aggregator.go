package grading

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/mathverify/internal/checker"
	"github.com/abhisek/mathverify/internal/oracle"
	"github.com/abhisek/mathverify/internal/verify"
)

// Feedback tiers.
const (
	FeedbackCorrect = "All parts are correct."
	FeedbackPartial = "Some parts are correct."
	FeedbackWrong   = "Not quite. Review the steps and try again."
	FeedbackRetry   = "We couldn't check your answer right now. Please retry in a moment."
)

// Aggregator grades multi-item exercises.
type Aggregator struct {
	dispatcher *checker.Dispatcher
	scorer     PartialCreditScorer
	batch      bool
	logger     *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithScorer sets the partial-credit scorer. The default awards none.
func WithScorer(s PartialCreditScorer) Option {
	return func(a *Aggregator) {
		if s != nil {
			a.scorer = s
		}
	}
}

// WithBatch enables or disables oracle batching. Enabled by default.
func WithBatch(enabled bool) Option {
	return func(a *Aggregator) { a.batch = enabled }
}

// WithLogger sets the aggregator's logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator creates an Aggregator over d.
func NewAggregator(d *checker.Dispatcher, opts ...Option) *Aggregator {
	a := &Aggregator{
		dispatcher: d,
		scorer:     NoCredit{},
		batch:      true,
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Grade verifies every item and folds the outcomes into a verdict. Any
// systemic item failure makes the whole verdict VerdictError.
func (a *Aggregator) Grade(ctx context.Context, items []Item) *Result {
	res := &Result{
		PerItem: make([]ItemOutcome, len(items)),
		Total:   len(items),
	}
	if len(items) == 0 {
		res.Verdict = VerdictWrong
		res.Feedback = FeedbackWrong
		return res
	}

	outcomes := a.verify(ctx, items)
	systemic := false
	for i, it := range items {
		res.PerItem[i] = ItemOutcome{
			ItemID:  it.ID,
			SkillID: it.SkillID,
			Kind:    it.Kind,
			Outcome: outcomes[i],
		}
		if outcomes[i].Systemic() {
			systemic = true
		}
	}

	if systemic {
		a.logger.Warn("systemic failure, verdict withheld", zap.Int("items", len(items)))
		res.Verdict = VerdictError
		res.Feedback = FeedbackRetry
		return res
	}

	correct := 0.0
	for i, it := range items {
		if outcomes[i].OK {
			res.PerItem[i].Credit = 1
			correct++
			continue
		}
		credit, err := a.scorer.Score(ctx, it, outcomes[i])
		if err != nil {
			a.logger.Warn("partial credit scoring failed", zap.String("item", it.ID), zap.Error(err))
			continue
		}
		delta := math.Min(math.Max(credit.Delta, 0), 1)
		res.PerItem[i].Credit = delta
		res.PerItem[i].Note = credit.Note
		res.PerItem[i].StepsDetail = credit.StepsDetail
		correct += delta
		if n := strings.TrimSpace(credit.Note); n != "" {
			res.Notes = append(res.Notes, n)
		}
	}
	res.CorrectCount = math.Min(correct, float64(res.Total))

	switch {
	case res.CorrectCount == float64(res.Total):
		res.Verdict = VerdictCorrect
		res.Feedback = FeedbackCorrect
	case res.CorrectCount > 0:
		res.Verdict = VerdictPartial
		res.Feedback = FeedbackPartial
	default:
		res.Verdict = VerdictWrong
		res.Feedback = FeedbackWrong
	}
	if len(res.Notes) > 0 {
		res.Feedback += " " + strings.Join(res.Notes, " ")
	}
	return res
}

// verify returns one outcome per item, positionally aligned.
func (a *Aggregator) verify(ctx context.Context, items []Item) []verify.Outcome {
	outcomes := make([]verify.Outcome, len(items))
	var valid []int
	for i, it := range items {
		if it.Kind.Valid() {
			valid = append(valid, i)
		} else {
			outcomes[i] = verify.NoVerifyType(it.SkillID)
		}
	}

	switch {
	case len(valid) == 0:
		return outcomes
	case len(valid) == 1:
		outcomes[valid[0]] = a.dispatcher.Check(ctx, items[valid[0]].Request())
		return outcomes
	}

	if a.batchVerify(ctx, items, valid, outcomes) {
		return outcomes
	}
	for _, i := range valid {
		outcomes[i] = a.dispatcher.Check(ctx, items[i].Request())
	}
	return outcomes
}

// batchVerify submits the valid items as one oracle batch and resolves each
// result. It reports false only when batching is off or unsupported, in
// which case nothing has been written to outcomes. A failed batch call is
// resolved per item like a failed single call, without re-asking the oracle.
func (a *Aggregator) batchVerify(ctx context.Context, items []Item, valid []int, outcomes []verify.Outcome) bool {
	gw := a.dispatcher.Oracle()
	if !a.batch || gw == nil || !gw.SupportsBatch(ctx) {
		return false
	}

	reqs := make([]verify.Request, len(valid))
	jobs := make([]oracle.Job, len(valid))
	for j, i := range valid {
		reqs[j] = items[i].Request()
		jobs[j] = oracle.JobFor(reqs[j])
	}

	results, err := gw.VerifyBatch(ctx, jobs)
	if err == nil && len(results) != len(jobs) {
		err = fmt.Errorf("batch returned %d results for %d jobs", len(results), len(jobs))
	}
	if err != nil {
		a.logger.Warn("batch verify failed, resolving items locally",
			zap.Int("jobs", len(jobs)), zap.Error(err))
	}

	// Resolve may run a numeric fallback; the comparator is stateless and
	// each goroutine writes only its own slot.
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for j, i := range valid {
		g.Go(func() error {
			if err != nil {
				outcomes[i] = a.dispatcher.Resolve(reqs[j], verify.Outcome{}, err)
				return nil
			}
			outcomes[i] = a.dispatcher.Resolve(reqs[j], results[j], nil)
			return nil
		})
	}
	_ = g.Wait()
	return true
}
