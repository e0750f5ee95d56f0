// Package llm defines the opaque text-generation contract used by the
// conversation stages, plus an Anthropic Messages API implementation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Common errors returned by generator providers.
var (
	ErrNoAPIKey     = errors.New("llm: API key not configured")
	ErrRateLimit    = errors.New("llm: rate limit exceeded")
	ErrProviderDown = errors.New("llm: provider unavailable")
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single role-tagged turn in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ChatOptions configures a single generation request.
type ChatOptions struct {
	System      string  `json:"system,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// Response is the generator's answer to a chat request.
type Response struct {
	Content string        `json:"content"`
	Model   string        `json:"model"`
	Tokens  int           `json:"tokens"`
	Latency time.Duration `json:"latency"`
}

// Provider is the opaque text-generation function the advisor depends on.
// Implementations must have no side effects other than possibly
// nondeterministic output.
type Provider interface {
	// Name returns the provider identifier (e.g., "anthropic").
	Name() string

	// Chat sends an ordered list of turns and returns generated text.
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)

	// Ping checks if the provider is reachable and the API key is valid.
	Ping(ctx context.Context) error
}

// String returns a human-readable summary of the response.
func (r *Response) String() string {
	truncated := r.Content
	if len(truncated) > 100 {
		truncated = truncated[:100] + "..."
	}
	return fmt.Sprintf("[%s] %q, %d tokens, %v",
		r.Model, truncated, r.Tokens, r.Latency.Round(time.Millisecond))
}
