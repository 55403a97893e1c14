package normalize

import (
	"regexp"
	"strings"
)

// Answer is a learner submission reduced to its parts.
type Answer struct {
	// Final is the learner's final answer as a single string.
	Final string
	// Steps holds intermediate working, when the submission carried any.
	Steps []string
	// Values is the answer split into individual values, for multi-valued
	// answers such as root sets.
	Values []string
}

// ParseAnswer accepts a plain string, a {final, steps} object, a list of
// values, or a number.
func ParseAnswer(raw any) Answer {
	switch v := raw.(type) {
	case nil:
		return Answer{}
	case map[string]any:
		a := Answer{Final: stringify(firstOf(v, "final", "answer", "value"))}
		a.Steps = parseSteps(v["steps"])
		if vals, ok := firstOf(v, "values", "final", "answer").([]any); ok {
			a.Values = toList(vals)
		} else {
			a.Values = SplitValues(a.Final)
		}
		return a
	case []any, []string:
		raw := toList(v)
		vals := make([]string, 0, len(raw))
		for _, r := range raw {
			if s := strings.TrimSpace(assignRe.ReplaceAllString(r, "")); s != "" {
				vals = append(vals, s)
			}
		}
		return Answer{Final: strings.Join(raw, ", "), Values: vals}
	default:
		s := stringify(v)
		return Answer{Final: s, Values: SplitValues(s)}
	}
}

func parseSteps(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		if ss, ok := raw.([]string); ok {
			return toList(ss)
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			if s := stringify(firstOf(m, "text", "expr", "latex", "content")); s != "" {
				out = append(out, s)
			}
			continue
		}
		if s := stringify(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var (
	valueSplitRe = regexp.MustCompile(`\s+(?:or|and)\s+`)
	assignRe     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(?:_\d+)?\s*=\s*`)
)

// SplitValues splits a multi-valued answer such as "x=2, x=-3" or
// "{1; 4}" into ["2", "-3"] / ["1", "4"]. Braces and variable assignments
// are stripped. Commas inside parentheses are kept so tuple values survive.
func SplitValues(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range splitTopLevel(s) {
		for _, p := range valueSplitRe.Split(part, -1) {
			p = strings.TrimSpace(assignRe.ReplaceAllString(strings.TrimSpace(p), ""))
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// splitTopLevel splits s on commas and semicolons that are not nested
// inside parentheses or brackets.
func splitTopLevel(s string) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',', ';':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

// ZeroForm rewrites "lhs=rhs" as "(lhs)-(rhs)". Strings without a bare
// equals sign are returned trimmed and unchanged.
func ZeroForm(s string) string {
	s = strings.TrimSpace(s)
	idx := equalsIndex(s)
	if idx < 0 {
		return s
	}
	lhs := strings.TrimSpace(s[:idx])
	rhs := strings.TrimSpace(strings.TrimLeft(s[idx+1:], "="))
	switch {
	case lhs == "":
		return rhs
	case rhs == "":
		return lhs
	}
	return "(" + lhs + ")-(" + rhs + ")"
}

// equalsIndex finds the first "=" that is not part of <=, >= or !=.
func equalsIndex(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != '=' {
			continue
		}
		if i > 0 && strings.ContainsRune("<>!", rune(s[i-1])) {
			continue
		}
		return i
	}
	return -1
}

// assignedValue returns the right-hand side of "var = value", or the whole
// string when it does not mention variable at all.
func assignedValue(s, variable string) string {
	s = strings.TrimSpace(s)
	if idx := equalsIndex(s); idx >= 0 {
		lhs := strings.TrimSpace(s[:idx])
		if lhs == variable {
			return strings.TrimSpace(strings.TrimLeft(s[idx+1:], "="))
		}
		return ""
	}
	if mentions(s, variable) {
		return ""
	}
	return s
}

func mentions(s, variable string) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(variable) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}
