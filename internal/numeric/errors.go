package numeric

import "fmt"

// ErrParse indicates an expression could not be parsed.
type ErrParse struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *ErrParse) Error() string {
	return fmt.Sprintf("parse %q at %d: %s", e.Expr, e.Pos, e.Msg)
}

// ErrEval indicates a parsed expression could not be evaluated, e.g. it
// references a variable with no binding.
type ErrEval struct {
	Name string
	Msg  string
}

func (e *ErrEval) Error() string {
	return fmt.Sprintf("evaluate %s: %s", e.Name, e.Msg)
}
