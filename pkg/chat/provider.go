package chat

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound reports a continuation against a session that was never
// created, was cleared, or has been evicted. Continuing without prior context
// is meaningless, so callers must treat this as fatal for the turn.
var ErrSessionNotFound = errors.New("chat: session not found")

// Provider is the port every concrete LLM backend implements. A provider owns
// the conversation state for its sessions; callers never mutate history
// directly.
type Provider interface {
	// Chat appends a user message to the session (creating the session on
	// first use), performs one model call, and returns the parsed response.
	Chat(ctx context.Context, sessionID, userMessage string, opts ...ChatOption) (*Response, error)

	// ContinueWithToolResults feeds tool outcomes back into an existing
	// session and performs one model call. It fails with ErrSessionNotFound
	// when the session does not exist and never creates one.
	ContinueWithToolResults(ctx context.Context, sessionID string, results []ToolResult) (*Response, error)

	// ClearSession discards the conversation state for the session id.
	ClearSession(sessionID string)
}

// ChatOption adjusts a single Chat invocation.
type ChatOption func(*ChatOptions)

// ChatOptions collects the resolved per-call settings.
type ChatOptions struct {
	SystemPrompt string
}

// WithSystemPrompt overrides the default system prompt for the session. The
// override only takes effect when the call creates the session; an existing
// session keeps the prompt captured at creation.
func WithSystemPrompt(prompt string) ChatOption {
	return func(o *ChatOptions) {
		o.SystemPrompt = prompt
	}
}

// ResolveChatOptions folds a list of options into a ChatOptions value.
func ResolveChatOptions(opts []ChatOption) ChatOptions {
	var resolved ChatOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}
	return resolved
}

// ProviderConfig captures the settings required to build a Provider through
// the factory. Extra can carry backend-specific tweaks without bloating the
// common surface.
type ProviderConfig struct {
	Provider        string
	Model           string
	Project         string
	Location        string
	BaseURL         string
	SystemPrompt    string
	Temperature     *float64
	MaxOutputTokens int
	RequestTimeout  time.Duration
	SessionIdleTTL  time.Duration
	MaxSessions     int
	Extra           map[string]any
}
