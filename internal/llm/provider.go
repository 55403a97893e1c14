// Package llm is a thin provider-neutral layer over the Anthropic, OpenAI
// (and OpenAI-compatible) and Gemini SDKs. Callers send a prompt with an
// optional JSON schema and receive validated JSON back.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates structured output from a prompt.
type Provider interface {
	// Generate sends req and returns the model output. When req.Schema is
	// set, Content is JSON that has been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the configured model identifier.
	ModelID() string
}

// Request describes a single generation call.
type Request struct {
	System   string
	Messages []Message

	// Schema, when set, asks the provider for JSON output conforming to
	// it using the provider's native structured-output mechanism.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero means the provider default, which for
	// grading is the deterministic end of the range.
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserMessage is shorthand for a single user turn.
func UserMessage(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}

// Schema is a named JSON Schema. Name is kebab-case and is used as the
// tool or schema name by providers that require one.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response holds the model output.
type Response struct {
	Content json.RawMessage
	Usage   Usage
	// Model is the model that actually served the request.
	Model string
	// StopReason is normalized to "end" or "max_tokens".
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
