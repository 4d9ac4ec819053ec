package llm

import (
	"context"
	"encoding/json"
)

// Provider generates text from a language model.
type Provider interface {
	// Generate sends req and returns the model output. When req.Schema is
	// set the output is JSON that validates against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the configured model identifier.
	ModelID() string
}

// Request is a single generation call.
type Request struct {
	// System is the system prompt.
	System string

	// Messages is the conversation. Filler phrases use a single user turn.
	Messages []Message

	// Schema, when set, asks the provider for structured JSON output.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt builds a Request holding a single user message.
func UserPrompt(system, prompt string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	}
}

// Schema is a named JSON Schema.
type Schema struct {
	// Name is used as the schema or tool name by providers that need one.
	Name string

	Description string

	// Definition is the JSON Schema document.
	Definition map[string]any
}

// Response is a model output.
type Response struct {
	// Content is validated JSON when a Schema was requested, raw text
	// otherwise.
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is one of "end", "max_tokens" or "error".
	StopReason string
}

// Usage is the token consumption of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
