package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathverify/internal/store"
)

func creditSchema() *Schema {
	return &Schema{
		Name: "test-credit",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"delta": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				"note":  map[string]any{"type": "string"},
				"tier":  map[string]any{"type": "string", "enum": []any{"none", "some", "most"}},
				"steps": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "integer"},
				},
			},
			"required": []any{"delta", "note"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"delta":0.5,"note":"ok","tier":"some"}`, false},
		{"optional fields omitted", `{"delta":0,"note":""}`, false},
		{"missing required", `{"note":"x"}`, true},
		{"wrong type", `{"delta":"half","note":"x"}`, true},
		{"out of range", `{"delta":1.5,"note":"x"}`, true},
		{"bad enum", `{"delta":0.1,"note":"x","tier":"all"}`, true},
		{"bad array item", `{"delta":0.1,"note":"x","steps":["a"]}`, true},
		{"malformed", `{not json}`, true},
		{"empty", ``, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(creditSchema(), json.RawMessage(tt.raw))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var inv *ErrInvalidResponse
			assert.ErrorAs(t, err, &inv)
		})
	}

	assert.NoError(t, validateResponse(nil, json.RawMessage(`anything`)))
}

func TestMockProvider(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"delta":0.5,"note":"a"}`), Usage: Usage{InputTokens: 3}},
		MockResponse{Err: errors.New("boom")},
	)
	assert.Equal(t, "mock", mock.ModelID())

	resp, err := mock.Generate(context.Background(), Request{Schema: creditSchema()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"delta":0.5,"note":"a"}`, string(resp.Content))
	assert.Equal(t, 3, resp.Usage.InputTokens)

	_, err = mock.Generate(context.Background(), Request{})
	assert.EqualError(t, err, "boom")

	_, err = mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)
	assert.Equal(t, 3, mock.CallCount())
}

func TestMockProvider_ValidatesSchema(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{"delta":"x"}`)})
	_, err := mock.Generate(context.Background(), Request{Schema: creditSchema()})
	var inv *ErrInvalidResponse
	assert.ErrorAs(t, err, &inv)
}

func TestOfflineProvider(t *testing.T) {
	p := NewOfflineProvider()
	ctx := WithPurpose(context.Background(), "partial-credit")

	resp, err := p.Generate(ctx, Request{Schema: creditSchema()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"delta":0,"note":""}`, string(resp.Content))

	p.AddResponse(MockResponse{Content: json.RawMessage(`{"delta":0.75,"note":"queued"}`)})
	resp, err = p.Generate(ctx, Request{Schema: creditSchema()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"delta":0.75,"note":"queued"}`, string(resp.Content))

	resp, err = p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(resp.Content))

	assert.Equal(t, []string{"partial-credit", "partial-credit", "unknown"}, p.Purposes)
	assert.Equal(t, 3, p.CallCount())
}

func TestMockProvider_CancelledContext(t *testing.T) {
	p := NewMockProvider(MockResponse{Content: json.RawMessage(`{"delta":1,"note":"n"}`)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)

	// The fixture is still queued for the next live call.
	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"delta":1,"note":"n"}`, string(resp.Content))
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "unknown", PurposeFrom(ctx))
	assert.Equal(t, "partial-credit", PurposeFrom(WithPurpose(ctx, "partial-credit")))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: "anthropic"}, true},
		{"anthropic with key", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "k"}}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"openrouter with key", Config{Provider: "openrouter", OpenRouter: OpenRouterConfig{APIKey: "k"}}, false},
		{"gemini without key", Config{Provider: "gemini"}, true},
		{"mock needs no key", Config{Provider: "mock"}, false},
		{"unknown provider", Config{Provider: "unknown"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "Validate() = %v", err)
		})
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	_, ok := DiscoverConfig()
	assert.False(t, ok)

	t.Setenv("OPENAI_API_KEY", "sk-1")
	t.Setenv("ANTHROPIC_API_KEY", "sk-2")
	cfg, ok := DiscoverConfig()
	require.True(t, ok)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "sk-1", cfg.OpenAI.APIKey)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	_, err = NewProvider(context.Background(), Config{Provider: "anthropic"}, nil, nil)
	assert.Error(t, err)

	_, err = NewProvider(context.Background(), Config{Provider: "nope"}, nil, nil)
	assert.Error(t, err)
}

type recordingEvents struct {
	store.EventRepo
	mu     sync.Mutex
	events []store.LLMRequestEventData
}

func (r *recordingEvents) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return nil
}

func TestWithLogging_RecordsEvents(t *testing.T) {
	events := &recordingEvents{}
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"delta":1,"note":"n"}`), Usage: Usage{InputTokens: 10, OutputTokens: 4}},
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}},
	)
	p := WithLogging(mock, events, nil)
	ctx := WithPurpose(context.Background(), "partial-credit")

	_, err := p.Generate(ctx, Request{System: "sys", Messages: UserMessage("hi"), Schema: creditSchema()})
	require.NoError(t, err)
	_, err = p.Generate(ctx, Request{Messages: UserMessage("again")})
	require.Error(t, err)

	require.Len(t, events.events, 2)
	ok := events.events[0]
	assert.True(t, ok.Success)
	assert.Equal(t, "partial-credit", ok.Purpose)
	assert.Equal(t, 10, ok.InputTokens)
	assert.Contains(t, ok.RequestBody, "[system]\nsys")
	assert.Contains(t, ok.RequestBody, "[schema: test-credit]")
	assert.JSONEq(t, `{"delta":1,"note":"n"}`, ok.ResponseBody)

	failed := events.events[1]
	assert.False(t, failed.Success)
	assert.Contains(t, failed.ErrorMessage, "down")
}

func retryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 5 * time.Millisecond, Multiplier: 2}
}

func TestRetry(t *testing.T) {
	unavailable := MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}}
	success := MockResponse{Content: json.RawMessage(`{"ok":true}`)}
	invalid := MockResponse{Err: &ErrInvalidResponse{Err: errors.New("bad")}}

	tests := []struct {
		name      string
		responses []MockResponse
		wantErr   bool
		wantCalls int
	}{
		{"first attempt", []MockResponse{success}, false, 1},
		{"transient then success", []MockResponse{unavailable, success}, false, 2},
		{"all attempts fail", []MockResponse{unavailable, unavailable, unavailable, success}, true, 3},
		{"max tokens not retried", []MockResponse{{Err: &ErrMaxTokensExceeded{}}, success}, true, 1},
		{"invalid retried once", []MockResponse{invalid, invalid, success}, true, 2},
		{"rate limit retried", []MockResponse{{Err: &ErrRateLimit{RetryAfter: time.Millisecond}}, success}, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			_, err := WithRetry(mock, retryConfig(), nil).Generate(context.Background(), Request{})
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
			assert.Equal(t, tt.wantCalls, mock.CallCount())
		})
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: context.Canceled})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := WithRetry(mock, retryConfig(), nil).Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.CallCount())
}

func TestAnthropicProvider_HTTP(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    map[string]any
		wantErr any
	}{
		{
			name:   "happy path",
			status: http.StatusOK,
			body: map[string]any{
				"id": "msg_1", "type": "message", "role": "assistant",
				"content":     []map[string]any{{"type": "text", "text": `{"delta":0.25,"note":"setup ok"}`}},
				"model":       "claude-haiku-4-5-20251001",
				"stop_reason": "end_turn",
				"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
			},
		},
		{
			name:    "rate limit",
			status:  http.StatusTooManyRequests,
			body:    map[string]any{"type": "error", "error": map[string]any{"type": "rate_limit_error", "message": "slow down"}},
			wantErr: new(*ErrRateLimit),
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    map[string]any{"type": "error", "error": map[string]any{"type": "api_error", "message": "oops"}},
			wantErr: new(*ErrProviderUnavailable),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.body)
			}))
			defer srv.Close()

			p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: "claude-haiku", BaseURL: srv.URL})
			require.NoError(t, err)
			assert.Equal(t, "claude-haiku-4-5-20251001", p.ModelID())

			resp, err := p.Generate(context.Background(), Request{
				System:    "grade",
				Messages:  UserMessage("score this"),
				Schema:    creditSchema(),
				MaxTokens: 256,
			})
			if tt.wantErr != nil {
				assert.ErrorAs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 50, resp.Usage.InputTokens)
			assert.Equal(t, 80, resp.Usage.TotalTokens)
			assert.Equal(t, "end", resp.StopReason)
		})
	}
}

func TestOpenAIProvider_HTTP(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		gotModel, _ = body["model"].(string)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-1", "object": "chat.completion", "model": "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": `{"delta":0.5,"note":"half"}`},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o-mini", BaseURL: srv.URL})
	require.NoError(t, err)
	resp, err := p.Generate(context.Background(), Request{Messages: UserMessage("x"), Schema: creditSchema()})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", gotModel)
	assert.Equal(t, 65, resp.Usage.TotalTokens)
	assert.JSONEq(t, `{"delta":0.5,"note":"half"}`, string(resp.Content))
}

func TestOpenAIProvider_Truncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": `{"delta":0.`},
				"finish_reason": "length",
			}},
		})
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), Request{Messages: UserMessage("x"), Schema: creditSchema()})
	var maxTok *ErrMaxTokensExceeded
	assert.ErrorAs(t, err, &maxTok)
}

func TestNewOpenRouterProvider(t *testing.T) {
	_, err := NewOpenRouterProvider(OpenRouterConfig{})
	assert.Error(t, err)

	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "k", Model: "google/gemini-2.0-flash-exp"})
	require.NoError(t, err)
	assert.Equal(t, "google/gemini-2.0-flash-exp", p.ModelID())
}

func TestBuildGeminiSchema(t *testing.T) {
	s := buildGeminiSchema(creditSchema().Definition)
	assert.Equal(t, "OBJECT", string(s.Type))
	assert.ElementsMatch(t, []string{"delta", "note"}, s.Required)
	require.Contains(t, s.Properties, "tier")
	assert.Equal(t, []string{"none", "some", "most"}, s.Properties["tier"].Enum)
	require.NotNil(t, s.Properties["steps"].Items)
	assert.Equal(t, "INTEGER", string(s.Properties["steps"].Items.Type))
}

func TestResolveModel(t *testing.T) {
	assert.Equal(t, "gemini-2.0-flash", resolveModel("gemini-flash", geminiModels))
	assert.Equal(t, "custom-model", resolveModel("custom-model", geminiModels))
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4o-mini")
	require.NotNil(t, c)
	assert.InDelta(t, 0.15+0.6, c.Cost(1_000_000, 1_000_000), 1e-9)
	assert.Nil(t, LookupCost("unknown"))
}

// blockingProvider waits for its context to end.
type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingProvider) ModelID() string { return "blocking" }

func TestWithTimeout(t *testing.T) {
	p := withTimeout(blockingProvider{}, 20*time.Millisecond)
	_, err := p.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "blocking", p.ModelID())

	assert.Equal(t, Provider(blockingProvider{}), withTimeout(blockingProvider{}, 0))
}
