package checker

import (
	"errors"
	"math"
	"strings"

	"github.com/abhisek/mathverify/internal/numeric"
	"github.com/abhisek/mathverify/internal/verify"
)

// fallbackFunc is a numeric check. A nil error with false means the answer
// was checked and is wrong.
type fallbackFunc func(req verify.Request) (bool, error)

var errInsufficient = errors.New("insufficient payload")

// equation tries, in order: expected against answer, substituting an
// assigned value into the equation, and the problem expression against the
// answer. An answer of the form "x = 4" is compared by its value.
func (d *Dispatcher) equation(req verify.Request) (bool, error) {
	variable := varOf(req)
	answer := req.String("answer")
	domain := domainOf(req)

	if exp := req.String("expected"); exp != "" && answer != "" {
		if v := req.String("value"); v != "" {
			if ev := req.String("expected_value"); ev != "" {
				exp = ev
			}
			return d.cmp.Compare(exp, v, variable, domain, 0)
		}
		return d.cmp.Compare(exp, answer, variable, domain, 0)
	}
	if v := req.String("value"); v != "" && isEquation(req) {
		return d.cmp.IsZero(req.String("expr"), variable, v)
	}
	if expr := req.String("expr"); !req.Has("expected") && expr != "" && answer != "" {
		return d.cmp.Compare(expr, answer, variable, domain, 0)
	}
	return false, errInsufficient
}

// roots requires every candidate to be a root of expr. When an expected set
// is known the candidate set must match it as well.
func (d *Dispatcher) roots(req verify.Request) (bool, error) {
	expr := req.String("expr")
	if expr == "" {
		return false, errInsufficient
	}
	variable := varOf(req)
	candidates := stripAssignments(req.Strings("candidates"), variable)
	if len(candidates) == 0 {
		return false, nil
	}
	for _, c := range candidates {
		ok, err := d.cmp.IsZero(expr, variable, c)
		if err != nil || !ok {
			return false, err
		}
	}

	expected := stripAssignments(req.Strings("expected"), variable)
	if len(expected) == 0 {
		return true, nil
	}
	return d.sameSet(candidates, expected)
}

// integral checks a definite integral by quadrature when bounds are given,
// else the answer as an antiderivative.
func (d *Dispatcher) integral(req verify.Request) (bool, error) {
	integrand, answer := req.String("integrand"), req.String("answer")
	if integrand == "" || answer == "" {
		return false, errInsufficient
	}
	variable := varOf(req)
	lo, okLo := req.Float("lower")
	hi, okHi := req.Float("upper")
	if okLo && okHi {
		return d.cmp.CompareDefinite(integrand, answer, variable, lo, hi)
	}
	return d.cmp.CompareAntiderivative(integrand, answer, variable, domainOf(req))
}

func (d *Dispatcher) derivative(req verify.Request) (bool, error) {
	expr, answer := req.String("expr"), req.String("answer")
	if expr == "" || answer == "" {
		return false, errInsufficient
	}
	return d.cmp.CompareDerivative(expr, answer, varOf(req), domainOf(req))
}

// sameSet reports whether two lists of constant expressions hold the same
// values, ignoring order and duplicates.
func (d *Dispatcher) sameSet(a, b []string) (bool, error) {
	av, err := constants(a)
	if err != nil {
		return false, err
	}
	bv, err := constants(b)
	if err != nil {
		return false, err
	}
	tol := d.cmp.Config().RootTol
	return covers(av, bv, tol) && covers(bv, av, tol), nil
}

func covers(a, b []float64, tol float64) bool {
	for _, x := range a {
		found := false
		for _, y := range b {
			if math.Abs(x-y) <= tol*math.Max(1, math.Abs(y)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func constants(exprs []string) ([]float64, error) {
	out := make([]float64, 0, len(exprs))
	for _, s := range exprs {
		e, err := numeric.Parse(s)
		if err != nil {
			return nil, err
		}
		v, err := e.Eval(nil)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// stripAssignments turns "x=2" into "2".
func stripAssignments(vals []string, variable string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if i := strings.Index(v, "="); i >= 0 && strings.TrimSpace(v[:i]) == variable {
			v = strings.TrimSpace(v[i+1:])
		}
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func varOf(req verify.Request) string {
	if v := req.String("var"); v != "" {
		return v
	}
	return "x"
}

func domainOf(req verify.Request) *numeric.Domain {
	b := req.Floats("domain")
	if len(b) != 2 || b[0] >= b[1] {
		return nil
	}
	return &numeric.Domain{Min: b[0], Max: b[1]}
}

func isEquation(req verify.Request) bool {
	v, ok := req.Payload()["is_equation"].(bool)
	return ok && v
}
