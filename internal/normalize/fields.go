package normalize

import (
	"fmt"
	"strconv"
	"strings"
)

// fields resolves problem fields across the shapes a problem record may
// take. The nested "problem" sub-record is the more specific source and is
// consulted first; the top-level record is the fallback.
type fields struct {
	sources []map[string]any
}

func newFields(problem map[string]any) fields {
	var srcs []map[string]any
	if nested, ok := problem["problem"].(map[string]any); ok {
		srcs = append(srcs, nested)
	}
	if problem != nil {
		srcs = append(srcs, problem)
	}
	return fields{sources: srcs}
}

// lookup returns the first non-nil value found for any key, trying keys in
// order within each source before moving to the next source.
func (f fields) lookup(keys ...string) (any, bool) {
	for _, src := range f.sources {
		for _, k := range keys {
			if v, ok := src[k]; ok && v != nil {
				return v, true
			}
		}
	}
	return nil, false
}

// str returns the first non-empty string for keys, or "".
func (f fields) str(keys ...string) string {
	for _, src := range f.sources {
		for _, k := range keys {
			if s := stringify(src[k]); s != "" {
				return s
			}
		}
	}
	return ""
}

// strOr returns str(keys...) or def when nothing is found.
func (f fields) strOr(def string, keys ...string) string {
	if s := f.str(keys...); s != "" {
		return s
	}
	return def
}

// list returns the first list-shaped value for keys as strings. A plain
// string is split into items.
func (f fields) list(keys ...string) []string {
	v, ok := f.lookup(keys...)
	if !ok {
		return nil
	}
	return toList(v)
}

// number returns the first numeric value for keys.
func (f fields) number(keys ...string) (float64, bool) {
	for _, src := range f.sources {
		for _, k := range keys {
			if n, ok := toFloat(src[k]); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// bounds resolves a [lo, hi] pair from either a two-element list, a
// {min,max} map, or separate lower/upper fields.
func (f fields) bounds(listKeys []string, loKeys, hiKeys []string) (lo, hi float64, ok bool) {
	if v, found := f.lookup(listKeys...); found {
		switch b := v.(type) {
		case []any:
			if len(b) == 2 {
				l, ok1 := toFloat(b[0])
				h, ok2 := toFloat(b[1])
				if ok1 && ok2 {
					return l, h, true
				}
			}
		case []float64:
			if len(b) == 2 {
				return b[0], b[1], true
			}
		case map[string]any:
			l, ok1 := toFloat(firstOf(b, "min", "lower", "a", "from"))
			h, ok2 := toFloat(firstOf(b, "max", "upper", "b", "to"))
			if ok1 && ok2 {
				return l, h, true
			}
		}
	}
	l, ok1 := f.number(loKeys...)
	h, ok2 := f.number(hiKeys...)
	if ok1 && ok2 {
		return l, h, true
	}
	return 0, 0, false
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case []any, []string:
		return strings.Join(toList(s), ", ")
	case map[string]any:
		// Structured answers nest their value under "final".
		return stringify(firstOf(s, "final", "value", "answer", "expr"))
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func toList(v any) []string {
	switch l := v.(type) {
	case []string:
		out := make([]string, 0, len(l))
		for _, s := range l {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(l))
		for _, e := range l {
			if s := stringify(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return SplitValues(l)
	case nil:
		return nil
	default:
		if s := stringify(l); s != "" {
			return []string{s}
		}
	}
	return nil
}
