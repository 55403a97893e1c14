// Package app wires configuration, storage, the oracle and the grading
// pipeline together for the command line.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/mathverify/internal/checker"
	"github.com/abhisek/mathverify/internal/config"
	"github.com/abhisek/mathverify/internal/grading"
	"github.com/abhisek/mathverify/internal/llm"
	"github.com/abhisek/mathverify/internal/mastery"
	"github.com/abhisek/mathverify/internal/normalize"
	"github.com/abhisek/mathverify/internal/numeric"
	"github.com/abhisek/mathverify/internal/oracle"
	"github.com/abhisek/mathverify/internal/partialcredit"
	"github.com/abhisek/mathverify/internal/spacedrep"
	"github.com/abhisek/mathverify/internal/store"
)

// Options overrides dependencies New would otherwise build from config.
type Options struct {
	Oracle oracle.Gateway
	Scorer grading.PartialCreditScorer
	Clock  mastery.Clock
}

// App holds the wired pipeline.
type App struct {
	Store      *store.Store
	Events     store.EventRepo
	Oracle     oracle.Gateway
	Builder    *normalize.Builder
	Aggregator *grading.Aggregator
	Engine     *spacedrep.Engine
	Gate       *mastery.Gate

	clock  mastery.Clock
	logger *zap.Logger
}

// New opens the store and builds the pipeline from cfg.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	dsn, err := cfg.StoreDSN()
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	st, err := store.OpenDriver(cfg.Store.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	events := st.EventRepo()

	gw := opts.Oracle
	if gw == nil {
		client, err := oracle.NewHTTPClient(oracle.HTTPConfig{
			BaseURL:         cfg.Oracle.BaseURL,
			Timeout:         cfg.Oracle.Timeout,
			Batch:           cfg.Oracle.Batch,
			MinBatchVersion: cfg.Oracle.MinBatchVersion,
		})
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("oracle client: %w", err)
		}
		gw = client
	}
	gw = oracle.WithLogging(gw, events, logger.Named("oracle"))

	scorer := opts.Scorer
	if scorer == nil && cfg.PartialCredit.Enabled {
		provider, err := llm.NewProvider(ctx, cfg.LLM, events, logger.Named("llm"))
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("partial credit provider: %w", err)
		}
		scorer = partialcredit.NewLLMScorer(provider, cfg.PartialCredit.Config)
	}

	dispatcher := checker.New(gw, numeric.NewComparator(cfg.Numeric),
		checker.WithLogger(logger.Named("checker")))
	agg := grading.NewAggregator(dispatcher,
		grading.WithScorer(scorer),
		grading.WithBatch(cfg.Oracle.Batch),
		grading.WithLogger(logger.Named("grading")))

	clock := opts.Clock
	if clock == nil {
		clock = mastery.SystemClock{}
	}
	engine := spacedrep.NewEngine(st.ScheduleRepo(), clock, logger.Named("schedule"))
	gate := mastery.NewGate(engine, engine,
		mastery.WithClock(clock),
		mastery.WithLocation(loc),
		mastery.WithEventQuality(cfg.Mastery.EventQuality),
		mastery.WithLogger(logger.Named("mastery")))

	return &App{
		Store:      st,
		Events:     events,
		Oracle:     gw,
		Builder:    normalize.NewBuilder(cfg.Normalize),
		Aggregator: agg,
		Engine:     engine,
		Gate:       gate,
		clock:      clock,
		logger:     logger,
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// GradeOptions controls a single Grade call.
type GradeOptions struct {
	// AttemptID is generated when empty.
	AttemptID string
	// SkipUpdate leaves the mastery schedule untouched.
	SkipUpdate bool
}

// Report is the outcome of grading one exercise.
type Report struct {
	AttemptID string          `json:"attempt_id"`
	UserID    string          `json:"user_id,omitempty"`
	SubjectID string          `json:"subject_id,omitempty"`
	Result    *grading.Result `json:"result"`
	Mastery   *mastery.Result `json:"mastery,omitempty"`
}

// Grade grades ex, records a grading event and, when the exercise names a
// user and subject, passes the verdict through the mastery gate.
func (a *App) Grade(ctx context.Context, ex *Exercise, opts GradeOptions) (*Report, error) {
	if ex == nil {
		return nil, fmt.Errorf("nil exercise")
	}
	attemptID := opts.AttemptID
	if attemptID == "" {
		attemptID = uuid.NewString()
	}

	items := make([]grading.Item, len(ex.Items))
	for i, it := range ex.Items {
		items[i] = grading.PrepareItem(a.Builder, it.ID, it.SkillID, it.Kind, it.Problem, it.Answer)
	}

	res := a.Aggregator.Grade(ctx, items)
	rep := &Report{
		AttemptID: attemptID,
		UserID:    ex.UserID,
		SubjectID: ex.SubjectID,
		Result:    res,
	}

	if err := a.Events.AppendGrading(ctx, res.Event(attemptID, ex.UserID, ex.SubjectID)); err != nil {
		a.logger.Warn("failed to record grading event", zap.String("attempt", attemptID), zap.Error(err))
	}

	if opts.SkipUpdate || ex.UserID == "" || ex.SubjectID == "" {
		return rep, nil
	}
	m := a.Gate.RecordSubmission(ctx, ex.UserID, ex.SubjectID, attemptID, res.Verdict, ex.Hints)
	rep.Mastery = &m
	return rep, nil
}

// Finalize records the end of a practice session for userID and subjectID.
func (a *App) Finalize(ctx context.Context, userID, subjectID string) mastery.Result {
	return a.Gate.FinalizeSession(ctx, userID, subjectID)
}

// Due returns the review state of every schedule for userID along with the
// subjects currently due, most overdue first.
func (a *App) Due(ctx context.Context, userID string) ([]*spacedrep.ReviewState, []string, error) {
	reviews, err := a.Engine.Reviews(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	var due []string
	if userID != "" {
		due, err = a.Engine.DueSubjects(ctx, userID, a.clock.Now())
		if err != nil {
			return nil, nil, err
		}
	}
	return reviews, due, nil
}

// Now returns the app clock's current time.
func (a *App) Now() time.Time {
	return a.clock.Now()
}
