package verify

// Kind is the canonical verification strategy for a skill.
type Kind string

const (
	KindDerivative          Kind = "derivative"
	KindIntegral            Kind = "integral"
	KindEquation            Kind = "equation"
	KindSystem              Kind = "system"
	KindRoots               Kind = "roots"
	KindInequality          Kind = "inequality"
	KindLimit               Kind = "limit"
	KindSeries              Kind = "series"
	KindSequenceTerm        Kind = "sequence_term"
	KindSum                 Kind = "sum"
	KindIntegerIdentity     Kind = "integer_identity"
	KindComplexIdentity     Kind = "complex_identity"
	KindCongruence          Kind = "congruence"
	KindMatrixEqual         Kind = "matrix_equal"
	KindDeterminant         Kind = "determinant"
	KindVecEqual            Kind = "vec_equal"
	KindVecDot              Kind = "vec_dot"
	KindVecCross            Kind = "vec_cross"
	KindVecMagnitude        Kind = "vec_magnitude"
	KindVecAngle            Kind = "vec_angle"
	KindVecOrthogonal       Kind = "vec_orthogonal"
	KindVecParallel         Kind = "vec_parallel"
	KindLineEqual           Kind = "line_equal"
	KindLineSlope           Kind = "line_slope"
	KindCircleFeatures      Kind = "circle_features"
	KindParabolaFeatures    Kind = "parabola_features"
	KindSolutionsOnInterval Kind = "solutions_on_interval"
	KindInequalitySet       Kind = "inequality_set"
	KindFunctionTransform   Kind = "function_transform"
)

var allKinds = []Kind{
	KindDerivative, KindIntegral, KindEquation, KindSystem, KindRoots,
	KindInequality, KindLimit, KindSeries, KindSequenceTerm, KindSum,
	KindIntegerIdentity, KindComplexIdentity, KindCongruence,
	KindMatrixEqual, KindDeterminant,
	KindVecEqual, KindVecDot, KindVecCross, KindVecMagnitude, KindVecAngle,
	KindVecOrthogonal, KindVecParallel,
	KindLineEqual, KindLineSlope, KindCircleFeatures, KindParabolaFeatures,
	KindSolutionsOnInterval, KindInequalitySet, KindFunctionTransform,
}

// AllKinds returns every member of the closed Kind set.
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Valid reports whether k is a member of the closed Kind set.
func (k Kind) Valid() bool {
	for _, c := range allKinds {
		if c == k {
			return true
		}
	}
	return false
}

// HasFallback reports whether a numeric fallback exists for k.
// All other kinds are oracle-only.
func (k Kind) HasFallback() bool {
	switch k {
	case KindEquation, KindRoots, KindIntegral, KindDerivative:
		return true
	}
	return false
}

// ZeroForm reports whether equality strings for k are rewritten into
// "(lhs)-(rhs)" before checking.
func (k Kind) ZeroForm() bool {
	switch k {
	case KindEquation, KindRoots, KindSystem:
		return true
	}
	return false
}
