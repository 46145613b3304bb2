// Package llm is the boundary to the generative completion service.
//
// Callers depend on the Completer interface. Free-text completion is a
// plain Complete call; structured completion goes through
// CompleteStructured, which first extracts a JSON value from the raw text
// and then hands it to a schema validator. The two failure kinds are
// reported as distinct error types (ExtractionError and SchemaError).
//
// Retry and rate limiting are decorators over any Completer, so the
// stage runner and population pipeline never retry on their own.
package llm

import "context"

// Role is the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversational turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion request.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Response carries the completed text.
type Response struct {
	Content    string
	StopReason string
}

// Completer produces a text completion for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (*Response, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// UserPrompt builds a request with a single user message.
func UserPrompt(system, prompt string, maxTokens int, temperature float64) Request {
	return Request{
		System:      system,
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}
