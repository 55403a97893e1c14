package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		skillID string
		want    Kind
	}{
		{"calc.derivative.chain_rule", KindDerivative},
		{"calc.differentiation.product", KindDerivative},
		{"calc.integral.by_parts", KindIntegral},
		{"calc.integration.substitution", KindIntegral},
		{"algebra.equation.linear", KindEquation},
		{"equation.system.2x2", KindSystem},
		{"algebra.linear.system", KindSystem},
		{"algebra.roots.quadratic", KindRoots},
		{"polynomial.zeros", KindRoots},
		{"ineq.quadratic", KindInequality},
		{"algebra.inequality.set", KindInequalitySet},
		{"inequality.interval", KindInequalitySet},
		{"calc.limit.lhopital", KindLimit},
		{"series.geometric.sum", KindSeries},
		{"seq.arithmetic.nth_term", KindSequenceTerm},
		{"algebra.sum.closed_form", KindSum},
		{"numtheory.integer.gcd", KindIntegerIdentity},
		{"complex.polar_form", KindComplexIdentity},
		{"numtheory.congruence.linear", KindCongruence},
		{"linalg.matrix.multiply", KindMatrixEqual},
		{"linalg.det.3x3", KindDeterminant},
		{"vec.dot", KindVecDot},
		{"vec.cross", KindVecCross},
		{"vector.magnitude", KindVecMagnitude},
		{"vec.angle", KindVecAngle},
		{"vec.orthogonal", KindVecOrthogonal},
		{"vec.parallel", KindVecParallel},
		{"vec.add", KindVecEqual},
		{"geometry.line.slope", KindLineSlope},
		{"geometry.line.point_slope", KindLineSlope},
		{"geometry.line.through_points", KindLineEqual},
		{"geometry.circle.center_radius", KindCircleFeatures},
		{"conics.parabola.vertex", KindParabolaFeatures},
		{"trig.solutions.interval", KindSolutionsOnInterval},
		{"trig.interval.cos", KindSolutionsOnInterval},
		{"precalc.function.transform", KindFunctionTransform},
		{"  CALC.Derivative.Power  ", KindDerivative},
	}
	for _, tt := range tests {
		t.Run(tt.skillID, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.skillID))
		})
	}
}

func TestRoute_SpecificBeforeGeneric(t *testing.T) {
	// equation.system contains "equation" but must not fall through to it.
	assert.Equal(t, KindSystem, Route("equation.system"))
	assert.Equal(t, KindEquation, Route("equation"))
	// vec.dot must win over the generic vector rule.
	assert.Equal(t, KindVecDot, Route("vec.dot"))
	assert.Equal(t, KindVecEqual, Route("vec"))
	// antiderivative contains "deriv" but is an integral.
	assert.Equal(t, KindIntegral, Route("calc.antiderivative"))
	assert.Equal(t, KindIntegral, Route("antiderivatives.basic"))
	assert.Equal(t, KindDerivative, Route("calc.derivative.chain"))
}

func TestRoute_DefaultsToEquation(t *testing.T) {
	for _, id := range []string{"", "   ", "unknown", "history.dates", "detail.view", "assumption"} {
		assert.Equal(t, KindEquation, Route(id), "skill %q", id)
	}
}

func TestRoute_AlwaysReturnsValidKind(t *testing.T) {
	ids := []string{"a", "b.c", "vec", "x.y.z", "mod", "sum", "det", "line", "🙂", "equation.system.vec.dot"}
	for _, r := range Rules() {
		ids = append(ids, r.Name)
	}
	for _, id := range ids {
		k := Route(id)
		require.True(t, k.Valid(), "Route(%q) = %q is not a valid kind", id, k)
	}
}

func TestRules_EveryKindReachable(t *testing.T) {
	seen := make(map[Kind]bool)
	for _, r := range Rules() {
		seen[r.Kind] = true
	}
	for _, k := range AllKinds() {
		assert.True(t, seen[k], "kind %q has no routing rule", k)
	}
}

func TestRules_NamesRouteToOwnKind(t *testing.T) {
	// Each rule's name is a representative identifier; it must route to the
	// rule's own kind, which keeps the ordering honest.
	for _, r := range Rules() {
		assert.Equal(t, r.Kind, Route(r.Name), "rule %q", r.Name)
	}
}
