package numeric

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Expr is a parsed real-valued expression.
type Expr struct {
	src  string
	root node
}

// String returns the source the expression was parsed from.
func (e *Expr) String() string { return e.src }

// Eval evaluates the expression with the given variable bindings. Domain
// errors (division by zero, log of a negative) yield NaN or ±Inf rather
// than an error; only unbound names are reported as errors.
func (e *Expr) Eval(env map[string]float64) (float64, error) {
	return e.root.eval(env)
}

type node interface {
	eval(env map[string]float64) (float64, error)
}

type numNode float64

func (n numNode) eval(map[string]float64) (float64, error) { return float64(n), nil }

type varNode string

func (v varNode) eval(env map[string]float64) (float64, error) {
	if x, ok := env[string(v)]; ok {
		return x, nil
	}
	return 0, &ErrEval{Name: string(v), Msg: "unbound variable"}
}

type unaryNode struct{ x node }

func (u unaryNode) eval(env map[string]float64) (float64, error) {
	x, err := u.x.eval(env)
	return -x, err
}

type binaryNode struct {
	op   byte
	l, r node
}

func (b binaryNode) eval(env map[string]float64) (float64, error) {
	l, err := b.l.eval(env)
	if err != nil {
		return 0, err
	}
	r, err := b.r.eval(env)
	if err != nil {
		return 0, err
	}
	switch b.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		return l / r, nil
	case '^':
		return math.Pow(l, r), nil
	}
	return 0, &ErrEval{Name: string(b.op), Msg: "unknown operator"}
}

type callNode struct {
	name string
	fn   func(float64) float64
	arg  node
}

func (c callNode) eval(env map[string]float64) (float64, error) {
	x, err := c.arg.eval(env)
	if err != nil {
		return 0, err
	}
	return c.fn(x), nil
}

// functions are the unary functions recognised by the parser. log is the
// natural logarithm, matching the convention of most CAS backends.
var functions = map[string]func(float64) float64{
	"sin":    math.Sin,
	"cos":    math.Cos,
	"tan":    math.Tan,
	"sec":    func(x float64) float64 { return 1 / math.Cos(x) },
	"csc":    func(x float64) float64 { return 1 / math.Sin(x) },
	"cot":    func(x float64) float64 { return 1 / math.Tan(x) },
	"asin":   math.Asin,
	"acos":   math.Acos,
	"atan":   math.Atan,
	"arcsin": math.Asin,
	"arccos": math.Acos,
	"arctan": math.Atan,
	"sinh":   math.Sinh,
	"cosh":   math.Cosh,
	"tanh":   math.Tanh,
	"exp":    math.Exp,
	"ln":     math.Log,
	"log":    math.Log,
	"log10":  math.Log10,
	"log2":   math.Log2,
	"sqrt":   math.Sqrt,
	"abs":    math.Abs,
	"floor":  math.Floor,
	"ceil":   math.Ceil,
}

var constants = map[string]float64{
	"pi":  math.Pi,
	"e":   math.E,
	"inf": math.Inf(1),
}

// Parse parses src after Clean. Names in vars are treated as variables;
// any other letter run must be a known function or constant, or split into
// known names and single-letter variables.
func Parse(src string, vars ...string) (*Expr, error) {
	p := &parser{src: Clean(src), vars: make(map[string]bool, len(vars))}
	for _, v := range vars {
		p.vars[v] = true
	}
	if strings.TrimSpace(p.src) == "" {
		return nil, &ErrParse{Expr: src, Msg: "empty expression"}
	}
	if err := p.lex(); err != nil {
		return nil, err
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, p.errorf("unexpected %q", p.toks[p.pos].text)
	}
	return &Expr{src: src, root: root}, nil
}

type tokKind int

const (
	tokNum tokKind = iota
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokBar
)

type token struct {
	kind tokKind
	text string
	pos  int
}

type parser struct {
	src  string
	vars map[string]bool
	toks []token
	pos  int
}

func (p *parser) errorf(format string, args ...any) error {
	pos := len(p.src)
	if p.pos < len(p.toks) {
		pos = p.toks[p.pos].pos
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &ErrParse{Expr: p.src, Pos: pos, Msg: msg}
}

func (p *parser) lex() error {
	rs := []rune(p.src)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			start := i
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.') {
				i++
			}
			// Scientific notation: 1e-5, 2E3.
			if i+1 < len(rs) && (rs[i] == 'e' || rs[i] == 'E') &&
				(unicode.IsDigit(rs[i+1]) || ((rs[i+1] == '-' || rs[i+1] == '+') && i+2 < len(rs) && unicode.IsDigit(rs[i+2]))) {
				i += 2
				for i < len(rs) && unicode.IsDigit(rs[i]) {
					i++
				}
			}
			p.toks = append(p.toks, token{tokNum, string(rs[start:i]), start})
		case unicode.IsLetter(r):
			start := i
			for i < len(rs) && (unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i]) || rs[i] == '_') {
				i++
			}
			for _, name := range p.splitIdent(string(rs[start:i])) {
				p.toks = append(p.toks, token{tokIdent, name, start})
			}
		case strings.ContainsRune("+-*/^", r):
			p.toks = append(p.toks, token{tokOp, string(r), i})
			i++
		case r == '(':
			p.toks = append(p.toks, token{tokLParen, "(", i})
			i++
		case r == ')':
			p.toks = append(p.toks, token{tokRParen, ")", i})
			i++
		case r == '|':
			p.toks = append(p.toks, token{tokBar, "|", i})
			i++
		default:
			return &ErrParse{Expr: p.src, Pos: i, Msg: "unexpected character " + strconv.QuoteRune(r)}
		}
	}
	return nil
}

// splitIdent breaks a letter run into known names. "sinx" becomes
// ["sin", "x"] and "xy" becomes ["x", "y"]. Longest known prefix wins;
// an unknown letter becomes a single-letter name.
func (p *parser) splitIdent(word string) []string {
	if p.known(word) {
		return []string{word}
	}
	var out []string
	for len(word) > 0 {
		best := ""
		for _, name := range p.knownNames() {
			if strings.HasPrefix(word, name) && len(name) > len(best) {
				best = name
			}
		}
		if best == "" {
			// Keep subscripted names like x_1 or a2 intact.
			_, size := utf8.DecodeRuneInString(word)
			best = word[:size]
			if rest := word[size:]; len(rest) > 0 && (rest[0] == '_' || unicode.IsDigit(rune(rest[0]))) {
				best = word
			}
		}
		out = append(out, best)
		word = word[len(best):]
	}
	return out
}

func (p *parser) known(name string) bool {
	if p.vars[name] {
		return true
	}
	if _, ok := functions[name]; ok {
		return true
	}
	_, ok := constants[name]
	return ok
}

func (p *parser) knownNames() []string {
	names := make([]string, 0, len(functions)+len(constants)+len(p.vars))
	for n := range functions {
		names = append(names, n)
	}
	for n := range constants {
		names = append(names, n)
	}
	for n := range p.vars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (p *parser) peek() (token, bool) {
	if p.pos < len(p.toks) {
		return p.toks[p.pos], true
	}
	return token{}, false
}

func (p *parser) isOp(op string) bool {
	t, ok := p.peek()
	return ok && t.kind == tokOp && t.text == op
}

// expr := term (('+'|'-') term)*
func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := p.toks[p.pos].text[0]
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, l: left, r: right}
	}
	return left, nil
}

// term := unary (('*'|'/') unary | implicit-product unary)*
func (p *parser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok {
			return left, nil
		}
		switch {
		case t.kind == tokOp && (t.text == "*" || t.text == "/"):
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = binaryNode{op: t.text[0], l: left, r: right}
		case t.kind == tokNum || t.kind == tokIdent || t.kind == tokLParen:
			right, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			left = binaryNode{op: '*', l: left, r: right}
		default:
			return left, nil
		}
	}
}

// unary := ('-'|'+') unary | power
func (p *parser) parseUnary() (node, error) {
	if p.isOp("-") {
		p.pos++
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{x: x}, nil
	}
	if p.isOp("+") {
		p.pos++
		return p.parseUnary()
	}
	return p.parsePower()
}

// power := primary ('^' unary)?   (right associative)
func (p *parser) parsePower() (node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.isOp("^") {
		p.pos++
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return binaryNode{op: '^', l: base, r: exp}, nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (node, error) {
	t, ok := p.peek()
	if !ok {
		return nil, p.errorf("unexpected end of expression")
	}
	switch t.kind {
	case tokNum:
		p.pos++
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, &ErrParse{Expr: p.src, Pos: t.pos, Msg: "bad number " + t.text}
		}
		return numNode(f), nil

	case tokLParen:
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if nt, ok := p.peek(); !ok || nt.kind != tokRParen {
			return nil, p.errorf("missing closing parenthesis")
		}
		p.pos++
		return inner, nil

	case tokBar:
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if nt, ok := p.peek(); !ok || nt.kind != tokBar {
			return nil, p.errorf("missing closing |")
		}
		p.pos++
		return callNode{name: "abs", fn: math.Abs, arg: inner}, nil

	case tokIdent:
		p.pos++
		if fn, ok := functions[t.text]; ok {
			// sin^2(x) means (sin(x))^2.
			var power node
			if p.isOp("^") {
				p.pos++
				pw, err := p.parsePrimary()
				if err != nil {
					return nil, err
				}
				power = pw
			}
			// Functions bind to a parenthesised argument, or to the next
			// power-level operand as in "sin x".
			arg, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			var call node = callNode{name: t.text, fn: fn, arg: arg}
			if power != nil {
				call = binaryNode{op: '^', l: call, r: power}
			}
			return call, nil
		}
		if c, ok := constants[t.text]; ok && !p.vars[t.text] {
			return numNode(c), nil
		}
		return varNode(t.text), nil
	}
	return nil, p.errorf("unexpected %q", t.text)
}
