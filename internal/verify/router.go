package verify

import "strings"

// Rule maps a skill identifier predicate to a Kind. Rules are evaluated in
// order; the first match wins, so more specific rules must come first.
type Rule struct {
	Name  string
	Match func(id string) bool
	Kind  Kind
}

// DefaultKind is returned for empty or unmatched skill identifiers.
const DefaultKind = KindEquation

var rules = []Rule{
	{"equation.system", anyOf(prefix("equation.system"), segment("system"), contains("simultaneous")), KindSystem},

	{"vec.dot", all(prefix("vec"), anyOf(segment("dot"), contains("dot_product"), contains("scalar_product"))), KindVecDot},
	{"vec.cross", all(prefix("vec"), anyOf(segment("cross"), contains("cross_product"))), KindVecCross},
	{"vec.magnitude", all(prefix("vec"), anyOf(segment("mag"), segment("magnitude"), segment("norm"), segment("length"))), KindVecMagnitude},
	{"vec.angle", all(prefix("vec"), segment("angle")), KindVecAngle},
	{"vec.orthogonal", all(prefix("vec"), anyOf(segment("orthogonal"), segment("perpendicular"))), KindVecOrthogonal},
	{"vec.parallel", all(prefix("vec"), segment("parallel")), KindVecParallel},
	{"vec", prefix("vec"), KindVecEqual},

	{"determinant", anyOf(segment("det"), contains("determinant")), KindDeterminant},
	{"matrix", anyOf(contains("matrix"), contains("matrices")), KindMatrixEqual},

	{"solutions.interval", anyOf(contains("solutions.interval"), contains("trig.interval"), contains("on_interval"), contains("interval.solutions")), KindSolutionsOnInterval},
	{"inequality.set", all(anyOf(contains("inequalit"), segment("ineq")), anyOf(segment("set"), segment("interval"), segment("intervals"))), KindInequalitySet},
	{"inequality", anyOf(contains("inequalit"), segment("ineq")), KindInequality},

	{"antiderivative", contains("antideriv"), KindIntegral},
	{"derivative", anyOf(contains("deriv"), contains("differentiat")), KindDerivative},
	{"integral", anyOf(contains("integral"), contains("integrat")), KindIntegral},
	{"limit", contains("limit"), KindLimit},

	{"series", contains("series"), KindSeries},
	{"sequence", anyOf(contains("sequence"), segment("seq"), contains("nth_term")), KindSequenceTerm},
	{"sum", anyOf(segment("sum"), contains("summation"), segment("sigma")), KindSum},

	{"congruence", anyOf(contains("congruen"), contains("modular"), segment("mod")), KindCongruence},
	{"complex", contains("complex"), KindComplexIdentity},
	{"integer", anyOf(contains("integer"), contains("number_theory"), segment("gcd"), segment("lcm"), contains("divisib")), KindIntegerIdentity},

	{"line.slope", anyOf(contains("line.slope"), segment("slope")), KindLineSlope},
	{"line", segment("line"), KindLineEqual},
	{"circle", contains("circle"), KindCircleFeatures},
	{"parabola", contains("parabola"), KindParabolaFeatures},
	{"function.transform", anyOf(contains("transform"), contains("function.shift")), KindFunctionTransform},

	{"roots", anyOf(segment("roots"), segment("zeros"), contains("quadratic")), KindRoots},
	{"equation", anyOf(contains("equation"), segment("solve")), KindEquation},
}

// Route maps a skill identifier to its verification kind. It never fails:
// empty or unrecognized identifiers resolve to DefaultKind.
func Route(skillID string) Kind {
	id := strings.ToLower(strings.TrimSpace(skillID))
	if id == "" {
		return DefaultKind
	}
	for _, r := range rules {
		if r.Match(id) {
			return r.Kind
		}
	}
	return DefaultKind
}

// Rules returns a copy of the ordered rule table.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

func prefix(p string) func(string) bool {
	return func(id string) bool { return strings.HasPrefix(id, p) }
}

func contains(s string) func(string) bool {
	return func(id string) bool { return strings.Contains(id, s) }
}

// segment matches when s equals one of the identifier's separator-delimited
// segments, so "det" matches "linalg.det" but not "detail".
func segment(s string) func(string) bool {
	return func(id string) bool {
		for _, seg := range splitSegments(id) {
			if seg == s {
				return true
			}
		}
		return false
	}
}

func anyOf(ms ...func(string) bool) func(string) bool {
	return func(id string) bool {
		for _, m := range ms {
			if m(id) {
				return true
			}
		}
		return false
	}
}

func all(ms ...func(string) bool) func(string) bool {
	return func(id string) bool {
		for _, m := range ms {
			if !m(id) {
				return false
			}
		}
		return true
	}
}

func splitSegments(id string) []string {
	return strings.FieldsFunc(id, func(r rune) bool {
		switch r {
		case '.', '_', '-', '/', ':', ' ':
			return true
		}
		return false
	})
}
