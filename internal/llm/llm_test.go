package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestServer returns an httptest server that mimics the Anthropic
// Messages API, and a provider pointed at it.
func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *AnthropicProvider) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewAnthropicProvider("test-key", WithAnthropicBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewAnthropicProvider: %v", err)
	}
	return srv, p
}

func TestNewAnthropicProviderRequiresKey(t *testing.T) {
	if _, err := NewAnthropicProvider(""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestAnthropicChat(t *testing.T) {
	var captured anthropicRequest
	_, p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q, want test-key", got)
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Error("missing anthropic-version header")
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(anthropicResponse{
			Model:   "claude-test",
			Content: []anthropicContentBlock{{Type: "text", Text: "hello "}, {Type: "text", Text: "world"}},
			Usage:   anthropicUsage{InputTokens: 10, OutputTokens: 5},
		})
	})

	resp, err := p.Chat(context.Background(), []Message{
		UserMessage("hi"),
		AssistantMessage("hello"),
		UserMessage("again"),
	}, &ChatOptions{System: "you are a fund advisor", MaxTokens: 500, Temperature: 0.7})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.Content != "hello world" {
		t.Errorf("content = %q, want %q", resp.Content, "hello world")
	}
	if resp.Tokens != 15 {
		t.Errorf("tokens = %d, want 15", resp.Tokens)
	}
	if captured.System != "you are a fund advisor" {
		t.Errorf("system = %q", captured.System)
	}
	if captured.MaxTokens != 500 {
		t.Errorf("max_tokens = %d, want 500", captured.MaxTokens)
	}
	if captured.Temperature == nil || *captured.Temperature != 0.7 {
		t.Errorf("temperature = %v, want 0.7", captured.Temperature)
	}
	if len(captured.Messages) != 3 {
		t.Fatalf("messages = %d, want 3", len(captured.Messages))
	}
	if captured.Messages[1].Role != "assistant" {
		t.Errorf("message[1].role = %q, want assistant", captured.Messages[1].Role)
	}
}

func TestAnthropicChatDefaultMaxTokens(t *testing.T) {
	var captured anthropicRequest
	_, p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicContentBlock{{Type: "text", Text: "ok"}},
		})
	})

	if _, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, nil); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if captured.MaxTokens != 2048 {
		t.Errorf("default max_tokens = %d, want 2048", captured.MaxTokens)
	}
}

func TestAnthropicErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrNoAPIKey},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, p := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(anthropicErrorResponse{
					Error: struct {
						Type    string `json:"type"`
						Message string `json:"message"`
					}{Type: "error", Message: "nope"},
				})
			})
			_, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAnthropicChatUnreachable(t *testing.T) {
	p, err := NewAnthropicProvider("key", WithAnthropicBaseURL("http://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("NewAnthropicProvider: %v", err)
	}
	if _, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, nil); !errors.Is(err, ErrProviderDown) {
		t.Errorf("err = %v, want ErrProviderDown", err)
	}
}
