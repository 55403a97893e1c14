package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider serves canned responses in FIFO order and records every
// request along with its purpose. Canned content is checked against the
// request schema, so a malformed fixture fails the same way a real model
// reply would.
//
// When the queue is empty an offline provider answers with the zero value
// of the request schema; otherwise Generate fails with
// ErrProviderUnavailable.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	offline   bool

	Calls    []Request
	Purposes []string
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// NewOfflineProvider creates the provider behind `provider: mock`. With no
// fixtures queued it returns schema-shaped zero answers, which for partial
// credit means no credit and an empty note.
func NewOfflineProvider() *MockProvider {
	return &MockProvider{offline: true}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	m.Purposes = append(m.Purposes, PurposeFrom(ctx))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var resp MockResponse
	switch {
	case len(m.responses) > 0:
		resp = m.responses[0]
		m.responses = m.responses[1:]
	case m.offline:
		resp = MockResponse{Content: zeroInstance(req.Schema)}
	default:
		return nil, &ErrProviderUnavailable{}
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	if err := validateResponse(req.Schema, resp.Content); err != nil {
		return nil, err
	}
	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse queues another canned response.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// zeroInstance builds the smallest object satisfying the schema's required
// properties. A nil schema yields an empty object.
func zeroInstance(schema *Schema) json.RawMessage {
	out := map[string]any{}
	if schema == nil {
		return json.RawMessage(`{}`)
	}
	props, _ := schema.Definition["properties"].(map[string]any)
	required, _ := schema.Definition["required"].([]any)
	for _, r := range required {
		name, ok := r.(string)
		if !ok {
			continue
		}
		prop, _ := props[name].(map[string]any)
		out[name] = zeroOf(prop)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return b
}

func zeroOf(prop map[string]any) any {
	switch prop["type"] {
	case "number", "integer":
		if lo, ok := prop["minimum"].(float64); ok {
			return lo
		}
		return 0
	case "string":
		return ""
	case "boolean":
		return false
	case "array":
		return []any{}
	case "object":
		return map[string]any{}
	}
	return nil
}
