package verify

import (
	"fmt"
	"strconv"
	"strings"
)

// TagMismatch is the only error tag that means "checked, answer is wrong".
// Every other non-empty tag signals a systemic failure.
const TagMismatch = "mismatch"

// Request is a typed verification request for a single graded item.
// Payload keys are kind-specific; see the normalize package for the
// per-kind wire contract.
type Request struct {
	Kind    Kind
	SkillID string
	payload map[string]any
}

// NewRequest builds a Request, copying payload so later changes by the
// caller cannot leak into it.
func NewRequest(kind Kind, skillID string, payload map[string]any) Request {
	cp := make(map[string]any, len(payload))
	for k, v := range payload {
		cp[k] = v
	}
	return Request{Kind: kind, SkillID: skillID, payload: cp}
}

// Payload returns a copy of the request payload.
func (r Request) Payload() map[string]any {
	cp := make(map[string]any, len(r.payload))
	for k, v := range r.payload {
		cp[k] = v
	}
	return cp
}

// String returns the payload field as a string, or "" if absent.
func (r Request) String(key string) string {
	switch v := r.payload[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

// Strings returns the payload field as a string slice.
func (r Request) Strings(key string) []string {
	switch v := r.payload[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, strings.TrimSpace(fmt.Sprint(e)))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// Float returns the payload field as a float64.
func (r Request) Float(key string) (float64, bool) {
	switch v := r.payload[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// Floats returns the payload field as a float64 slice. Non-numeric
// elements are skipped.
func (r Request) Floats(key string) []float64 {
	var out []float64
	switch v := r.payload[key].(type) {
	case []float64:
		out = make([]float64, len(v))
		copy(out, v)
	case []any:
		for _, e := range v {
			switch n := e.(type) {
			case float64:
				out = append(out, n)
			case int:
				out = append(out, float64(n))
			case string:
				if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
					out = append(out, f)
				}
			}
		}
	}
	return out
}

// Has reports whether the payload carries key.
func (r Request) Has(key string) bool {
	_, ok := r.payload[key]
	return ok
}

// Outcome is the result of verifying one request.
type Outcome struct {
	OK       bool   `json:"ok"`
	ErrorTag string `json:"error,omitempty"`
}

// Systemic reports whether the outcome is a systemic failure rather than a
// legitimate wrong answer.
func (o Outcome) Systemic() bool {
	return !o.OK && o.ErrorTag != "" && o.ErrorTag != TagMismatch
}

// Correct is the outcome of a verified-correct answer.
func Correct() Outcome { return Outcome{OK: true} }

// Mismatch is the outcome of a verified-wrong answer.
func Mismatch() Outcome { return Outcome{ErrorTag: TagMismatch} }

// Failure builds a systemic outcome with the given tag.
func Failure(format string, args ...any) Outcome {
	return Outcome{ErrorTag: fmt.Sprintf(format, args...)}
}

// NoVerifyType is the outcome for an item whose kind could not be resolved.
func NoVerifyType(skillID string) Outcome {
	return Failure("no-verify-type for %s", skillID)
}
