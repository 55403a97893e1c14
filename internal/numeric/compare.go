// Package numeric evaluates real-valued expressions and decides equivalence
// by deterministic sampling. It is the fallback when the symbolic oracle is
// unreachable.
package numeric

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Config holds the sampling and tolerance settings.
type Config struct {
	Samples   int     `yaml:"samples"`
	AbsTol    float64 `yaml:"abs_tol"`
	RelTol    float64 `yaml:"rel_tol"`
	DomainMin float64 `yaml:"domain_min"`
	DomainMax float64 `yaml:"domain_max"`
	// RootTol bounds |f(candidate)| for a candidate to count as a root.
	RootTol float64 `yaml:"root_tol"`
	// DiffTol is the looser tolerance used when one side is a numerical
	// derivative or quadrature.
	DiffTol float64 `yaml:"diff_tol"`
}

// DefaultConfig returns the default sampling configuration.
func DefaultConfig() Config {
	return Config{
		Samples:   7,
		AbsTol:    1e-6,
		RelTol:    1e-6,
		DomainMin: -10,
		DomainMax: 10,
		RootTol:   1e-6,
		DiffTol:   1e-4,
	}
}

// Domain is a closed sampling interval.
type Domain struct {
	Min, Max float64
}

// Comparator compares expressions numerically. It holds no mutable state
// and is safe for concurrent use.
type Comparator struct {
	cfg Config
}

// NewComparator creates a Comparator. Zero fields take their defaults.
func NewComparator(cfg Config) *Comparator {
	def := DefaultConfig()
	if cfg.Samples <= 0 {
		cfg.Samples = def.Samples
	}
	if cfg.AbsTol <= 0 {
		cfg.AbsTol = def.AbsTol
	}
	if cfg.RelTol <= 0 {
		cfg.RelTol = def.RelTol
	}
	if cfg.DomainMin >= cfg.DomainMax {
		cfg.DomainMin, cfg.DomainMax = def.DomainMin, def.DomainMax
	}
	if cfg.RootTol <= 0 {
		cfg.RootTol = def.RootTol
	}
	if cfg.DiffTol <= 0 {
		cfg.DiffTol = def.DiffTol
	}
	return &Comparator{cfg: cfg}
}

// Config returns the effective configuration.
func (c *Comparator) Config() Config { return c.cfg }

// Compare reports whether lhs and rhs agree at every evaluable sample point
// of variable over domain. A nil domain or non-positive samples use the
// configured defaults. If no sample can be evaluated on both sides the
// result is false.
func (c *Comparator) Compare(lhs, rhs, variable string, domain *Domain, samples int) (bool, error) {
	l, err := Parse(lhs, variable)
	if err != nil {
		return false, err
	}
	r, err := Parse(rhs, variable)
	if err != nil {
		return false, err
	}
	return c.agree(l.Eval, r.Eval, variable, domain, samples, c.cfg.AbsTol, c.cfg.RelTol)
}

// CompareDerivative reports whether answer matches d/d(variable) of expr.
func (c *Comparator) CompareDerivative(expr, answer, variable string, domain *Domain) (bool, error) {
	f, err := Parse(expr, variable)
	if err != nil {
		return false, err
	}
	g, err := Parse(answer, variable)
	if err != nil {
		return false, err
	}
	return c.agree(derivative(f, variable), g.Eval, variable, domain, 0, c.cfg.DiffTol, c.cfg.DiffTol)
}

// CompareAntiderivative reports whether d/d(variable) of answer matches the
// integrand. The constant of integration is therefore ignored.
func (c *Comparator) CompareAntiderivative(integrand, answer, variable string, domain *Domain) (bool, error) {
	f, err := Parse(integrand, variable)
	if err != nil {
		return false, err
	}
	F, err := Parse(answer, variable)
	if err != nil {
		return false, err
	}
	return c.agree(f.Eval, derivative(F, variable), variable, domain, 0, c.cfg.DiffTol, c.cfg.DiffTol)
}

// CompareDefinite reports whether answer equals the integral of integrand
// over [lo, hi], computed with composite Simpson quadrature.
func (c *Comparator) CompareDefinite(integrand, answer, variable string, lo, hi float64) (bool, error) {
	f, err := Parse(integrand, variable)
	if err != nil {
		return false, err
	}
	a, err := Parse(answer, variable)
	if err != nil {
		return false, err
	}
	want, err := a.Eval(map[string]float64{variable: lo})
	if err != nil {
		return false, err
	}
	got, err := simpson(f, variable, lo, hi, 512)
	if err != nil {
		return false, err
	}
	if !finite(got) || !finite(want) {
		return false, nil
	}
	return within(got, want, c.cfg.DiffTol, c.cfg.DiffTol), nil
}

// IsZero substitutes value for every whole-word occurrence of variable in
// expr and reports whether the result is within RootTol of zero.
func (c *Comparator) IsZero(expr, variable, value string) (bool, error) {
	if variable == "" {
		return false, &ErrEval{Name: expr, Msg: "no variable to substitute"}
	}
	e, err := Parse(Substitute(Clean(expr), variable, "("+Clean(value)+")"))
	if err != nil {
		return false, fmt.Errorf("substitute %s=%s: %w", variable, value, err)
	}
	v, err := e.Eval(nil)
	if err != nil {
		return false, err
	}
	return finite(v) && math.Abs(v) <= c.cfg.RootTol, nil
}

// Substitute replaces whole-word occurrences of name in s with repl. A
// word boundary is any rune that is not a letter, digit or underscore,
// except that a leading digit also counts, so "2x" substitutes as 2(...).
// A variable that is also a constant name (e.g. "e") is replaced too.
func Substitute(s, name, repl string) string {
	if name == "" {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], name) && !wordBefore(s[:i]) && !wordAfter(s[i+len(name):]) {
			b.WriteString(repl)
			i += len(name)
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		b.WriteRune(r)
		i += size
	}
	return b.String()
}

func wordBefore(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r != utf8.RuneError && (unicode.IsLetter(r) || r == '_')
}

func wordAfter(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}

type evalFunc func(env map[string]float64) (float64, error)

func (c *Comparator) agree(l, r evalFunc, variable string, domain *Domain, samples int, abs, rel float64) (bool, error) {
	lo, hi := c.cfg.DomainMin, c.cfg.DomainMax
	if domain != nil && domain.Min < domain.Max {
		lo, hi = domain.Min, domain.Max
	}
	if samples <= 0 {
		samples = c.cfg.Samples
	}

	evaluated := 0
	for _, x := range SamplePoints(lo, hi, samples) {
		env := map[string]float64{variable: x}
		a, err := l(env)
		if err != nil {
			return false, err
		}
		b, err := r(env)
		if err != nil {
			return false, err
		}
		if !finite(a) || !finite(b) {
			continue
		}
		evaluated++
		if !within(a, b, abs, rel) {
			return false, nil
		}
	}
	return evaluated > 0, nil
}

// SamplePoints returns n deterministic points in [lo, hi]. Points sit at
// cell midpoints shifted by a small irrational-looking offset so that
// integers and zero are avoided for the usual symmetric domains.
func SamplePoints(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	step := (hi - lo) / float64(n)
	pts := make([]float64, n)
	for i := range pts {
		pts[i] = lo + step*(float64(i)+0.5) + step*0.0137
	}
	return pts
}

func derivative(e *Expr, variable string) evalFunc {
	return func(env map[string]float64) (float64, error) {
		x := env[variable]
		h := 1e-5 * math.Max(1, math.Abs(x))
		fp, err := e.Eval(map[string]float64{variable: x + h})
		if err != nil {
			return 0, err
		}
		fm, err := e.Eval(map[string]float64{variable: x - h})
		if err != nil {
			return 0, err
		}
		return (fp - fm) / (2 * h), nil
	}
}

func simpson(e *Expr, variable string, lo, hi float64, n int) (float64, error) {
	if n%2 == 1 {
		n++
	}
	h := (hi - lo) / float64(n)
	sum := 0.0
	for i := 0; i <= n; i++ {
		v, err := e.Eval(map[string]float64{variable: lo + h*float64(i)})
		if err != nil {
			return 0, err
		}
		switch {
		case i == 0 || i == n:
			sum += v
		case i%2 == 1:
			sum += 4 * v
		default:
			sum += 2 * v
		}
	}
	return sum * h / 3, nil
}

func within(a, b, abs, rel float64) bool {
	d := math.Abs(a - b)
	return d <= abs || d <= rel*math.Max(math.Abs(a), math.Abs(b))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
