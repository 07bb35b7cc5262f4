// Package agent contains the orchestration loop that turns one user message
// into a bounded sequence of model calls and tool executions. The loop never
// mutates conversation state directly; all history changes go through the
// chat.Provider port, which keeps session mutation single-threaded per
// session.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/skylinkair/pilot/pkg/chat"
	"github.com/skylinkair/pilot/pkg/event"
	"github.com/skylinkair/pilot/pkg/tool"
)

// Executor is the external collaborator that actually performs tool calls:
// the booking backend. It is treated as an opaque, potentially slow,
// potentially failing black box.
type Executor interface {
	Execute(ctx context.Context, name, argumentsJSON string) (chat.ToolResult, error)
}

// Hook intercepts tool execution. PreToolCall returning an error vetoes the
// call; the refusal is round-tripped to the model as an error result instead
// of failing the turn.
type Hook interface {
	PreToolCall(ctx context.Context, sessionID string, call chat.ToolCall) error
	PostToolCall(ctx context.Context, sessionID string, call ExecutedCall) error
}

// NopHook offers a zero-cost base for hooks that only need one method.
type NopHook struct{}

func (NopHook) PreToolCall(context.Context, string, chat.ToolCall) error { return nil }
func (NopHook) PostToolCall(context.Context, string, ExecutedCall) error { return nil }

// Orchestrator drives the provider/executor cycle for each turn.
type Orchestrator struct {
	cfg      Config
	provider chat.Provider
	executor Executor
	catalog  *tool.Catalog
	hooks    []Hook
	logger   *slog.Logger
}

// New constructs an orchestrator. Provider, executor and catalog are all
// required; the catalog is needed to reject unknown tool names before they
// reach the executor.
func New(cfg Config, provider chat.Provider, executor Executor, catalog *tool.Catalog) (*Orchestrator, error) {
	if provider == nil {
		return nil, errors.New("agent: provider is required")
	}
	if executor == nil {
		return nil, errors.New("agent: executor is required")
	}
	if catalog == nil {
		return nil, errors.New("agent: tool catalog is required")
	}
	cfg = cfg.normalize()
	return &Orchestrator{
		cfg:      cfg,
		provider: provider,
		executor: executor,
		catalog:  catalog,
		logger:   slog.Default(),
	}, nil
}

// WithHook returns a shallow copy of the orchestrator with an extra hook.
func (o *Orchestrator) WithHook(h Hook) *Orchestrator {
	if h == nil {
		return o
	}
	clone := *o
	clone.hooks = append(append([]Hook(nil), o.hooks...), h)
	return &clone
}

// WithLogger returns a shallow copy using the provided logger.
func (o *Orchestrator) WithLogger(logger *slog.Logger) *Orchestrator {
	if logger == nil {
		return o
	}
	clone := *o
	clone.logger = logger
	return &clone
}

// HandleMessage processes one user turn to completion. The returned
// TurnResult always carries user-safe text, even when err is non-nil: raw
// tool JSON, tool names and parser internals never appear in Text.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, userMessage string, opts ...chat.ChatOption) (*TurnResult, error) {
	if ctx == nil {
		return nil, errors.New("agent: context is nil")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("agent: session id is required")
	}
	if strings.TrimSpace(userMessage) == "" {
		return nil, errors.New("agent: user message is empty")
	}

	if o.cfg.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.TurnTimeout)
		defer cancel()
	}

	result := &TurnResult{StopReason: StopComplete}
	result.appendEvent(event.New(event.TypeTurnAccepted, sessionID, event.TurnData{Stage: "accepted"}))

	resp, err := o.provider.Chat(ctx, sessionID, userMessage, opts...)
	result.appendEvent(event.New(event.TypeModelRound, sessionID, event.ModelRoundData{Round: 0}))

	rounds := 0
	for {
		if err != nil {
			return o.failTurn(sessionID, result, rounds, err)
		}
		if resp.IsComplete || len(resp.ToolCalls) == 0 {
			result.Text = resp.Text
			result.StopReason = StopComplete
			result.appendEvent(event.New(event.TypeCompletion, sessionID, event.CompletionData{
				StopReason: result.StopReason,
				Rounds:     rounds,
			}))
			return result, nil
		}
		if rounds >= o.cfg.MaxToolRounds {
			// Liveness guard: the model keeps asking for tools. Surface a
			// generic answer and keep the session for the next turn.
			o.logger.Warn("tool round limit exceeded",
				slog.String("session_id", sessionID),
				slog.Int("rounds", rounds))
			result.Text = o.cfg.FallbackText
			result.StopReason = StopRoundsExceeded
			result.appendEvent(event.New(event.TypeCompletion, sessionID, event.CompletionData{
				StopReason: result.StopReason,
				Rounds:     rounds,
			}))
			return result, nil
		}

		call := resp.ToolCalls[0]
		toolResult, execErr := o.runTool(ctx, sessionID, call, result)
		if execErr != nil {
			return o.failTurn(sessionID, result, rounds, execErr)
		}

		rounds++
		resp, err = o.provider.ContinueWithToolResults(ctx, sessionID, []chat.ToolResult{toolResult})
		result.appendEvent(event.New(event.TypeModelRound, sessionID, event.ModelRoundData{Round: rounds}))
	}
}

// runTool resolves and executes a single tool call. Recoverable problems
// (unknown tool, invalid arguments, hook veto, backend failure) come back as
// an error ToolResult so the model can self-correct; only context
// cancellation aborts the turn.
func (o *Orchestrator) runTool(ctx context.Context, sessionID string, call chat.ToolCall, result *TurnResult) (chat.ToolResult, error) {
	result.appendEvent(event.New(event.TypeToolCall, sessionID, event.ToolCallData{Name: call.Name}))

	def, known := o.catalog.Lookup(call.Name)
	if !known {
		o.logger.Warn("model requested unknown tool",
			slog.String("session_id", sessionID),
			slog.String("tool", call.Name))
		return o.recordToolOutcome(ctx, sessionID, call, result, chat.ToolResult{
			ToolCallID: call.ID,
			Result:     fmt.Sprintf("unknown tool: %s", call.Name),
			IsError:    true,
		}, 0), nil
	}

	if err := tool.ValidateArguments(call.Arguments, def.Parameters); err != nil {
		return o.recordToolOutcome(ctx, sessionID, call, result, chat.ToolResult{
			ToolCallID: call.ID,
			Result:     fmt.Sprintf("invalid arguments for %s: %v", call.Name, err),
			IsError:    true,
		}, 0), nil
	}

	for _, hook := range o.hooks {
		if err := hook.PreToolCall(ctx, sessionID, call); err != nil {
			return o.recordToolOutcome(ctx, sessionID, call, result, chat.ToolResult{
				ToolCallID: call.ID,
				Result:     fmt.Sprintf("tool call rejected: %v", err),
				IsError:    true,
			}, 0), nil
		}
	}

	started := time.Now()
	outcome, err := o.executor.Execute(ctx, call.Name, call.Arguments)
	duration := time.Since(started)
	if err != nil {
		if ctx.Err() != nil {
			return chat.ToolResult{}, err
		}
		outcome = chat.ToolResult{
			ToolCallID: call.ID,
			Result:     fmt.Sprintf("tool execution failed: %v", err),
			IsError:    true,
		}
	}
	if outcome.ToolCallID == "" {
		outcome.ToolCallID = call.ID
	}
	return o.recordToolOutcome(ctx, sessionID, call, result, outcome, duration), nil
}

// recordToolOutcome appends the executed call to the turn result, notifies
// post hooks and emits the tool_result event.
func (o *Orchestrator) recordToolOutcome(ctx context.Context, sessionID string, call chat.ToolCall, result *TurnResult, outcome chat.ToolResult, duration time.Duration) chat.ToolResult {
	executed := ExecutedCall{
		ID:        call.ID,
		Name:      call.Name,
		Arguments: call.Arguments,
		Result:    outcome.Result,
		IsError:   outcome.IsError,
		Duration:  duration,
	}
	result.ToolCalls = append(result.ToolCalls, executed)

	for _, hook := range o.hooks {
		if err := hook.PostToolCall(ctx, sessionID, executed); err != nil {
			o.logger.Warn("post tool hook failed",
				slog.String("session_id", sessionID),
				slog.String("tool", call.Name),
				slog.String("error", err.Error()))
		}
	}

	result.appendEvent(event.New(event.TypeToolResult, sessionID, event.ToolResultData{
		Name:     call.Name,
		IsError:  outcome.IsError,
		Duration: duration,
	}))
	return outcome
}

// failTurn maps an infrastructure failure onto a user-safe result. The
// session stays intact; the next user turn retries on top of it.
func (o *Orchestrator) failTurn(sessionID string, result *TurnResult, rounds int, err error) (*TurnResult, error) {
	kind := "provider"
	result.StopReason = StopProviderError
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		kind = "timeout"
		result.StopReason = StopTimeout
		result.Text = o.cfg.TimeoutText
	case errors.Is(err, chat.ErrSessionNotFound):
		kind = "session"
		result.StopReason = StopSessionLost
		result.Text = o.cfg.FallbackText
	default:
		result.Text = o.cfg.FallbackText
	}

	o.logger.Error("turn failed",
		slog.String("session_id", sessionID),
		slog.String("kind", kind),
		slog.Int("rounds", rounds),
		slog.String("error", err.Error()))

	result.appendEvent(event.New(event.TypeError, sessionID, event.ErrorData{
		Kind:    kind,
		Message: err.Error(),
	}))
	return result, err
}
