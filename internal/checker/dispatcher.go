// Package checker decides whether a single verification request is
// satisfied. The oracle is asked first; kinds with a numeric fallback are
// re-checked locally when the oracle cannot answer.
package checker

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/mathverify/internal/numeric"
	"github.com/abhisek/mathverify/internal/oracle"
	"github.com/abhisek/mathverify/internal/verify"
)

// ErrNoOracle is reported when no oracle is configured.
var ErrNoOracle = errors.New("no oracle configured")

// Dispatcher runs the per-kind verification strategy.
type Dispatcher struct {
	oracle    oracle.Gateway
	cmp       *numeric.Comparator
	fallbacks map[verify.Kind]fallbackFunc
	logger    *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Dispatcher. A nil gateway skips the oracle entirely: kinds
// with a fallback are checked numerically and the rest fail as unavailable.
func New(gw oracle.Gateway, cmp *numeric.Comparator, opts ...Option) *Dispatcher {
	if cmp == nil {
		cmp = numeric.NewComparator(numeric.DefaultConfig())
	}
	d := &Dispatcher{
		oracle: gw,
		cmp:    cmp,
		logger: zap.NewNop(),
	}
	d.fallbacks = map[verify.Kind]fallbackFunc{
		verify.KindEquation:   d.equation,
		verify.KindRoots:      d.roots,
		verify.KindIntegral:   d.integral,
		verify.KindDerivative: d.derivative,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Oracle returns the dispatcher's gateway, which may be nil.
func (d *Dispatcher) Oracle() oracle.Gateway { return d.oracle }

// Check verifies req. It never returns an error; failures are carried in
// the outcome's error tag.
func (d *Dispatcher) Check(ctx context.Context, req verify.Request) verify.Outcome {
	if !req.Kind.Valid() {
		d.logger.Debug("unresolved kind", zap.String("skill", req.SkillID))
		return verify.NoVerifyType(req.SkillID)
	}
	if d.oracle == nil {
		return d.Resolve(req, verify.Outcome{}, ErrNoOracle)
	}
	out, err := d.oracle.VerifySingle(ctx, req.Kind, req.Payload())
	return d.Resolve(req, out, err)
}

// Resolve turns an oracle answer for req into the final outcome, running
// the numeric fallback where the kind has one. Batch and single paths
// share it so both reach the same verdicts.
func (d *Dispatcher) Resolve(req verify.Request, out verify.Outcome, oracleErr error) verify.Outcome {
	log := d.logger.With(zap.String("kind", string(req.Kind)), zap.String("skill", req.SkillID))

	if !req.Kind.Valid() {
		return verify.NoVerifyType(req.SkillID)
	}

	if oracleErr == nil {
		switch {
		case out.OK:
			log.Debug("oracle accepted")
			return verify.Correct()
		case out.ErrorTag == "" || out.ErrorTag == verify.TagMismatch:
			if req.Kind == verify.KindRoots {
				// A roots rejection is re-proved candidate by candidate. The
				// oracle did answer, so a failed re-proof stays a mismatch.
				log.Debug("oracle rejected roots, re-proving")
				if res := d.Fallback(req); !res.Systemic() {
					return res
				}
				return verify.Mismatch()
			}
			log.Debug("oracle rejected")
			return verify.Mismatch()
		}
		oracleErr = fmt.Errorf("%s", out.ErrorTag)
	}

	if !req.Kind.HasFallback() {
		log.Warn("oracle unavailable, no fallback", zap.Error(oracleErr))
		return verify.Failure("oracle-unavailable: %v", oracleErr)
	}
	log.Warn("oracle unavailable, using numeric fallback", zap.Error(oracleErr))
	return d.Fallback(req)
}

// Fallback runs the numeric check for req without consulting the oracle.
func (d *Dispatcher) Fallback(req verify.Request) verify.Outcome {
	fn, ok := d.fallbacks[req.Kind]
	if !ok {
		return verify.Failure("oracle-unavailable: no numeric fallback for %s", req.Kind)
	}
	ok, err := fn(req)
	if err != nil {
		d.logger.Debug("fallback failed",
			zap.String("kind", string(req.Kind)), zap.String("skill", req.SkillID), zap.Error(err))
		return verify.Failure("fallback-error: %v", err)
	}
	if !ok {
		return verify.Mismatch()
	}
	return verify.Correct()
}
