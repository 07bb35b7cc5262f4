package vertex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/skylinkair/pilot/pkg/chat"
	"github.com/skylinkair/pilot/pkg/chat/parse"
	"github.com/skylinkair/pilot/pkg/session"
	"github.com/skylinkair/pilot/pkg/tool"
)

// Ensure Provider implements the port.
var _ chat.Provider = (*Provider)(nil)

// defaultSystemPrompt is the persona fallback when configuration supplies
// none. The tool catalog rendering is always appended to whichever prompt is
// in effect.
const defaultSystemPrompt = "You are Pilot, the airline booking assistant. " +
	"Answer in the traveller's language, keep replies short, and use the " +
	"available tools for every booking fact instead of guessing."

// toolResultPreamble frames tool outcomes for a model that has no native
// tool-result role. The wording instructs the model to stick to the literal
// data; placeholder text in a booking context is worse than an error.
const toolResultPreamble = "Tool results follow. Answer the traveller using " +
	"only the literal data below. Never invent values, never emit " +
	"placeholders, and do not mention the tool machinery."

// Provider drives the Vertex predict endpoint and exclusively owns the
// conversation state for its sessions.
type Provider struct {
	client       *http.Client
	tokens       oauth2.TokenSource
	endpoint     string
	params       GenerationParams
	timeout      time.Duration
	catalog      *tool.Catalog
	systemPrompt string
	store        *session.Store
	logger       *slog.Logger
}

// Chat appends a user turn to the session, creating it on first use, and
// runs one model round. When the network call fails the appended user
// message stays in history; the user's words were genuinely said and the
// next turn retries on top of them.
func (p *Provider) Chat(ctx context.Context, sessionID, userMessage string, opts ...chat.ChatOption) (*chat.Response, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errors.New("vertex: session id is required")
	}
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return nil, errors.New("vertex: user message is empty")
	}

	resolved := chat.ResolveChatOptions(opts)
	state := p.store.GetOrCreate(sessionID, func() *session.State {
		return session.NewState(p.composeSystemPrompt(resolved.SystemPrompt))
	})
	state.Append(chat.RoleUser, userMessage)

	return p.complete(ctx, sessionID, state)
}

// ContinueWithToolResults feeds tool outcomes back into an existing session
// and runs one model round. A missing session is fatal: continuing without
// prior context would let the model act on nothing.
func (p *Provider) ContinueWithToolResults(ctx context.Context, sessionID string, results []chat.ToolResult) (*chat.Response, error) {
	if len(results) == 0 {
		return nil, errors.New("vertex: no tool results to continue with")
	}
	state, ok := p.store.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", chat.ErrSessionNotFound, sessionID)
	}

	state.Append(chat.RoleUser, formatToolResults(results))
	return p.complete(ctx, sessionID, state)
}

// ClearSession discards the conversation state for the session id.
func (p *Provider) ClearSession(sessionID string) {
	p.store.Invalidate(sessionID)
}

// complete performs exactly one outbound model call for the session, parses
// the reply, and appends the assistant turn. No retries happen here; retry
// policy belongs to the caller.
func (p *Provider) complete(ctx context.Context, sessionID string, state *session.State) (*chat.Response, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	raw, err := p.predict(ctx, state)
	if err != nil {
		return nil, err
	}

	text, call, hasCall := parse.Parse(raw)
	state.Append(chat.RoleAssistant, text)

	resp := &chat.Response{
		Text:       text,
		IsComplete: !hasCall,
		StopReason: chat.StopComplete,
	}
	if hasCall {
		call.ID = "call_" + uuid.NewString()
		resp.ToolCalls = []chat.ToolCall{*call}
		resp.StopReason = chat.StopToolCall
		p.logger.Debug("tool call extracted",
			slog.String("session_id", sessionID),
			slog.String("tool", call.Name))
	}
	return resp, nil
}

func (p *Provider) predict(ctx context.Context, state *session.State) (string, error) {
	payload := PredictRequest{
		Instances: []ChatInstance{{
			Context:  state.SystemPrompt(),
			Messages: toVertexMessages(state.Messages()),
		}},
		Parameters: p.params,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode vertex request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("create vertex request: %w", err)
	}
	token, err := p.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("acquire vertex credentials: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call vertex endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", readAPIError(resp)
	}

	var prediction PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return "", fmt.Errorf("decode vertex response: %w", err)
	}
	if len(prediction.Predictions) == 0 || len(prediction.Predictions[0].Candidates) == 0 {
		return "", errors.New("vertex response contained no candidates")
	}
	return prediction.Predictions[0].Candidates[0].Content, nil
}

func (p *Provider) composeSystemPrompt(override string) string {
	prompt := strings.TrimSpace(override)
	if prompt == "" {
		prompt = p.systemPrompt
	}
	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	return prompt + "\n\n" + p.catalog.RenderPrompt()
}

func readAPIError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("vertex api status %d: %w", resp.StatusCode, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var apiErr ErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return APIError{StatusCode: resp.StatusCode, Status: apiErr.Error.Status, Message: apiErr.Error.Message}
	}
	return APIError{StatusCode: resp.StatusCode, Message: string(body)}
}

// toVertexMessages maps conversation roles onto the endpoint's author field.
// System content travels separately in the instance context.
func toVertexMessages(messages []chat.Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(messages))
	for _, msg := range messages {
		author := "user"
		if msg.Role == chat.RoleAssistant {
			author = "bot"
		}
		out = append(out, ChatMessage{Author: author, Content: msg.Content})
	}
	return out
}

// formatToolResults renders tool outcomes into a single user-role message.
func formatToolResults(results []chat.ToolResult) string {
	var b strings.Builder
	b.WriteString(toolResultPreamble)
	for _, res := range results {
		b.WriteString("\n\n")
		if res.IsError {
			b.WriteString(fmt.Sprintf("[tool result %s (failed)]\n", res.ToolCallID))
		} else {
			b.WriteString(fmt.Sprintf("[tool result %s]\n", res.ToolCallID))
		}
		b.WriteString(res.Result)
	}
	return b.String()
}
