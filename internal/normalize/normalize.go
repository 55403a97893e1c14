// Package normalize reshapes heterogeneous problem records and learner
// answers into typed verification requests. It performs no symbolic math
// and never fails: missing fields fall back to documented defaults so an
// imperfect request can still be attempted.
package normalize

import (
	"math"

	"github.com/abhisek/mathverify/internal/verify"
)

// Defaults holds the values substituted for missing fields.
type Defaults struct {
	Variable  string  `yaml:"variable"`
	DomainMin float64 `yaml:"domain_min"`
	DomainMax float64 `yaml:"domain_max"`
	// IntervalMin and IntervalMax bound solutions_on_interval problems.
	IntervalMin float64 `yaml:"interval_min"`
	IntervalMax float64 `yaml:"interval_max"`
}

// DefaultDefaults returns the documented fallbacks: variable x, domain
// [-10, 10], interval [0, 2π].
func DefaultDefaults() Defaults {
	return Defaults{
		Variable:    "x",
		DomainMin:   -10,
		DomainMax:   10,
		IntervalMin: 0,
		IntervalMax: 2 * math.Pi,
	}
}

// Builder builds verification requests using a fixed set of defaults.
type Builder struct {
	defaults Defaults
}

// NewBuilder creates a Builder. Zero-valued defaults are filled in from
// DefaultDefaults.
func NewBuilder(d Defaults) *Builder {
	def := DefaultDefaults()
	if d.Variable == "" {
		d.Variable = def.Variable
	}
	if d.DomainMin == 0 && d.DomainMax == 0 {
		d.DomainMin, d.DomainMax = def.DomainMin, def.DomainMax
	}
	if d.IntervalMin == 0 && d.IntervalMax == 0 {
		d.IntervalMin, d.IntervalMax = def.IntervalMin, def.IntervalMax
	}
	return &Builder{defaults: d}
}

// Build uses the default Builder.
func Build(kind verify.Kind, skillID string, problem map[string]any, answer any) verify.Request {
	return NewBuilder(Defaults{}).Build(kind, skillID, problem, answer)
}

// Keys used to find the main expression of a problem, most specific first.
var (
	exprKeys     = []string{"expr", "expression", "function", "f"}
	equationKeys = []string{"equation", "expr", "expression"}
	expectedKeys = []string{"expected", "answer", "solution", "target"}
	varKeys      = []string{"var", "variable", "wrt"}
)

// Build normalizes problem and answer into a request for kind.
func (b *Builder) Build(kind verify.Kind, skillID string, problem map[string]any, answer any) verify.Request {
	f := newFields(problem)
	ans := ParseAnswer(answer)
	variable := f.strOr(b.defaults.Variable, varKeys...)

	p := map[string]any{
		"answer": ans.Final,
	}
	if exp := f.str(expectedKeys...); exp != "" {
		p["expected"] = exp
	}

	switch kind {
	case verify.KindDerivative:
		p["expr"] = f.str(exprKeys...)
		p["var"] = variable
		p["domain"] = b.domain(f)

	case verify.KindIntegral:
		p["integrand"] = f.str(append([]string{"integrand"}, exprKeys...)...)
		p["var"] = variable
		p["domain"] = b.domain(f)
		if lo, hi, ok := f.bounds([]string{"bounds", "limits"}, []string{"lower", "a"}, []string{"upper", "b"}); ok {
			p["lower"], p["upper"] = lo, hi
		}

	case verify.KindEquation:
		eq := f.str(equationKeys...)
		p["expr"] = ZeroForm(eq)
		p["is_equation"] = equalsIndex(eq) >= 0
		p["answer"] = ZeroForm(ans.Final)
		p["var"] = variable
		p["domain"] = b.domain(f)
		if exp := f.str(expectedKeys...); exp != "" {
			p["expected"] = ZeroForm(exp)
			if v := assignedValue(exp, variable); v != "" {
				p["expected_value"] = v
			}
		}
		if v := assignedValue(ans.Final, variable); v != "" {
			p["value"] = v
		}

	case verify.KindRoots:
		p["expr"] = ZeroForm(f.str(equationKeys...))
		p["var"] = variable
		p["candidates"] = orEmpty(ans.Values)
		p["expected"] = orEmpty(f.list("roots", "solutions", "expected", "answer"))

	case verify.KindSystem:
		eqs := f.list("equations", "system")
		zero := make([]string, len(eqs))
		for i, e := range eqs {
			zero[i] = ZeroForm(e)
		}
		p["equations"] = zero
		vars := f.list("vars", "variables")
		if len(vars) == 0 {
			vars = []string{"x", "y"}
		}
		p["vars"] = vars
		p["solution"] = orEmpty(ans.Values)

	case verify.KindLimit:
		p["expr"] = f.str(exprKeys...)
		p["var"] = variable
		p["at"] = f.strOr("0", "at", "approaches", "point", "to")

	case verify.KindSeries, verify.KindSum, verify.KindSequenceTerm:
		p["expr"] = f.str(append([]string{"term", "formula", "series", "sequence"}, exprKeys...)...)
		p["var"] = f.strOr("n", "index", "var", "variable")
		if n, ok := f.number("n", "k", "term_index"); ok {
			p["n"] = n
		}
		if lo, hi, ok := f.bounds([]string{"bounds", "range"}, []string{"lower", "from", "start"}, []string{"upper", "to", "end"}); ok {
			p["lower"], p["upper"] = lo, hi
		}

	case verify.KindIntegerIdentity, verify.KindComplexIdentity:
		p["expr"] = f.str(append([]string{"identity", "statement"}, exprKeys...)...)

	case verify.KindCongruence:
		p["expr"] = f.str(append([]string{"congruence"}, equationKeys...)...)
		p["modulus"] = f.str("modulus", "mod", "m")
		p["var"] = variable

	case verify.KindMatrixEqual, verify.KindDeterminant:
		p["matrix"] = ""
		if m, ok := f.lookup("matrix", "a", "operands"); ok {
			p["matrix"] = m
		}

	case verify.KindVecEqual, verify.KindVecDot, verify.KindVecCross,
		verify.KindVecMagnitude, verify.KindVecAngle,
		verify.KindVecOrthogonal, verify.KindVecParallel:
		p["u"] = f.str("u", "a", "v1", "vector")
		p["v"] = f.str("v", "b", "v2")

	case verify.KindLineEqual, verify.KindLineSlope:
		p["line"] = f.str("line", "equation", "points", "expr")

	case verify.KindCircleFeatures, verify.KindParabolaFeatures:
		p["equation"] = f.str("equation", "expr", "curve")

	case verify.KindSolutionsOnInterval:
		p["expr"] = f.str(equationKeys...)
		p["var"] = variable
		lo, hi, ok := f.bounds([]string{"interval", "domain"}, []string{"lower", "a"}, []string{"upper", "b"})
		if !ok {
			lo, hi = b.defaults.IntervalMin, b.defaults.IntervalMax
		}
		p["lower"], p["upper"] = lo, hi
		p["candidates"] = orEmpty(ans.Values)

	case verify.KindInequality, verify.KindInequalitySet:
		p["expr"] = f.str(append([]string{"inequality"}, exprKeys...)...)
		p["var"] = variable

	case verify.KindFunctionTransform:
		p["base"] = f.str("base", "function", "f", "expr")
		p["transform"] = f.str("transform", "g", "description")
	}

	return verify.NewRequest(kind, skillID, p)
}

// domain resolves the sampling domain for a problem.
func (b *Builder) domain(f fields) []float64 {
	lo, hi, ok := f.bounds([]string{"domain"}, []string{"domain_min"}, []string{"domain_max"})
	if !ok || lo >= hi {
		lo, hi = b.defaults.DomainMin, b.defaults.DomainMax
	}
	return []float64{lo, hi}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
