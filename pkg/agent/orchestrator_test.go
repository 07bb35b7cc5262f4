package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylinkair/pilot/pkg/chat"
	"github.com/skylinkair/pilot/pkg/event"
	"github.com/skylinkair/pilot/pkg/tool"
)

// scriptedProvider replays a fixed sequence of responses across Chat and
// ContinueWithToolResults calls.
type scriptedProvider struct {
	responses []*chat.Response
	errs      []error
	idx       int

	chatCalls     int
	continueCalls int
	lastResults   []chat.ToolResult
	cleared       []string
}

func (p *scriptedProvider) next() (*chat.Response, error) {
	if p.idx >= len(p.responses) {
		return nil, errors.New("scripted provider exhausted")
	}
	resp := p.responses[p.idx]
	var err error
	if p.idx < len(p.errs) {
		err = p.errs[p.idx]
	}
	p.idx++
	return resp, err
}

func (p *scriptedProvider) Chat(_ context.Context, _, _ string, _ ...chat.ChatOption) (*chat.Response, error) {
	p.chatCalls++
	return p.next()
}

func (p *scriptedProvider) ContinueWithToolResults(_ context.Context, _ string, results []chat.ToolResult) (*chat.Response, error) {
	p.continueCalls++
	p.lastResults = results
	return p.next()
}

func (p *scriptedProvider) ClearSession(sessionID string) {
	p.cleared = append(p.cleared, sessionID)
}

var _ chat.Provider = (*scriptedProvider)(nil)

type executedArgs struct {
	name string
	args string
}

type fakeExecutor struct {
	calls  []executedArgs
	result chat.ToolResult
	err    error
}

func (e *fakeExecutor) Execute(_ context.Context, name, args string) (chat.ToolResult, error) {
	e.calls = append(e.calls, executedArgs{name: name, args: args})
	return e.result, e.err
}

var _ Executor = (*fakeExecutor)(nil)

func textResponse(text string) *chat.Response {
	return &chat.Response{Text: text, IsComplete: true, StopReason: chat.StopComplete}
}

func toolResponse(id, name, args string) *chat.Response {
	return &chat.Response{
		ToolCalls:  []chat.ToolCall{{ID: id, Name: name, Arguments: args}},
		IsComplete: false,
		StopReason: chat.StopToolCall,
	}
}

func newTestOrchestrator(t *testing.T, cfg Config, provider chat.Provider, executor Executor) *Orchestrator {
	t.Helper()
	orch, err := New(cfg, provider, executor, tool.BookingCatalog())
	require.NoError(t, err)
	return orch
}

func eventTypes(events []event.Event) []event.Type {
	types := make([]event.Type, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

func TestHandleMessagePlainReply(t *testing.T) {
	provider := &scriptedProvider{responses: []*chat.Response{
		textResponse("Hello! How can I help with your booking?"),
	}}
	executor := &fakeExecutor{}
	orch := newTestOrchestrator(t, Config{}, provider, executor)

	result, err := orch.HandleMessage(context.Background(), "s-1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help with your booking?", result.Text)
	assert.Equal(t, StopComplete, result.StopReason)
	assert.Empty(t, result.ToolCalls)
	assert.Empty(t, executor.calls)
	assert.Equal(t, []event.Type{
		event.TypeTurnAccepted,
		event.TypeModelRound,
		event.TypeCompletion,
	}, eventTypes(result.Events))
}

func TestHandleMessageBookingLookup(t *testing.T) {
	provider := &scriptedProvider{responses: []*chat.Response{
		toolResponse("call_1", "get_booking", `{"pnr": "ABC123"}`),
		textResponse("Your booking ABC123 is confirmed on flight SK802 to Oslo."),
	}}
	executor := &fakeExecutor{result: chat.ToolResult{
		Result: `{"pnr": "ABC123", "status": "confirmed", "flight": "SK802"}`,
	}}
	orch := newTestOrchestrator(t, Config{}, provider, executor)

	result, err := orch.HandleMessage(context.Background(), "s-1", "what's the status of booking ABC123?")
	require.NoError(t, err)
	assert.Equal(t, "Your booking ABC123 is confirmed on flight SK802 to Oslo.", result.Text)
	assert.Equal(t, StopComplete, result.StopReason)

	require.Len(t, executor.calls, 1)
	assert.Equal(t, "get_booking", executor.calls[0].name)
	assert.JSONEq(t, `{"pnr": "ABC123"}`, executor.calls[0].args)

	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "get_booking", result.ToolCalls[0].Name)
	assert.False(t, result.ToolCalls[0].IsError)

	// The executor result must flow back to the provider tagged with the
	// originating call id.
	require.Len(t, provider.lastResults, 1)
	assert.Equal(t, "call_1", provider.lastResults[0].ToolCallID)
	assert.False(t, provider.lastResults[0].IsError)

	assert.Equal(t, []event.Type{
		event.TypeTurnAccepted,
		event.TypeModelRound,
		event.TypeToolCall,
		event.TypeToolResult,
		event.TypeModelRound,
		event.TypeCompletion,
	}, eventTypes(result.Events))
}

func TestHandleMessageChainedToolCalls(t *testing.T) {
	provider := &scriptedProvider{responses: []*chat.Response{
		toolResponse("call_1", "get_booking", `{"pnr": "ABC123"}`),
		toolResponse("call_2", "get_seat_map", `{"pnr": "ABC123", "segment": 1}`),
		textResponse("Seat 14A is available on your Oslo flight."),
	}}
	executor := &fakeExecutor{result: chat.ToolResult{Result: `{"ok": true}`}}
	orch := newTestOrchestrator(t, Config{}, provider, executor)

	result, err := orch.HandleMessage(context.Background(), "s-1", "any window seats left on my flight?")
	require.NoError(t, err)
	assert.Equal(t, StopComplete, result.StopReason)
	require.Len(t, executor.calls, 2)
	assert.Equal(t, "get_booking", executor.calls[0].name)
	assert.Equal(t, "get_seat_map", executor.calls[1].name)
	assert.Equal(t, 1, provider.chatCalls)
	assert.Equal(t, 2, provider.continueCalls)
}

func TestHandleMessageRoundLimit(t *testing.T) {
	// Model never stops asking for tools; the loop must terminate anyway.
	responses := make([]*chat.Response, 0, 4)
	for i := 0; i < 4; i++ {
		responses = append(responses, toolResponse("call_x", "get_booking", `{"pnr": "ABC123"}`))
	}
	provider := &scriptedProvider{responses: responses}
	executor := &fakeExecutor{result: chat.ToolResult{Result: "{}"}}
	orch := newTestOrchestrator(t, Config{MaxToolRounds: 2}, provider, executor)

	result, err := orch.HandleMessage(context.Background(), "s-1", "loop please")
	require.NoError(t, err)
	assert.Equal(t, StopRoundsExceeded, result.StopReason)
	assert.Equal(t, DefaultFallbackText, result.Text)
	assert.Len(t, executor.calls, 2)
}

func TestHandleMessageUnknownTool(t *testing.T) {
	provider := &scriptedProvider{responses: []*chat.Response{
		toolResponse("call_1", "teleport_passenger", `{"pnr": "ABC123"}`),
		textResponse("I can't do that, but I can look up your booking."),
	}}
	executor := &fakeExecutor{}
	orch := newTestOrchestrator(t, Config{}, provider, executor)

	result, err := orch.HandleMessage(context.Background(), "s-1", "teleport me")
	require.NoError(t, err)
	assert.Equal(t, StopComplete, result.StopReason)

	// The executor must never see a name outside the catalog.
	assert.Empty(t, executor.calls)

	require.Len(t, provider.lastResults, 1)
	assert.True(t, provider.lastResults[0].IsError)
	assert.Contains(t, provider.lastResults[0].Result, "unknown tool: teleport_passenger")

	require.Len(t, result.ToolCalls, 1)
	assert.True(t, result.ToolCalls[0].IsError)
}

func TestHandleMessageInvalidArguments(t *testing.T) {
	provider := &scriptedProvider{responses: []*chat.Response{
		toolResponse("call_1", "get_booking", `{"pnr": 42}`),
		textResponse("Could you give me your booking reference as text?"),
	}}
	executor := &fakeExecutor{}
	orch := newTestOrchestrator(t, Config{}, provider, executor)

	result, err := orch.HandleMessage(context.Background(), "s-1", "booking 42")
	require.NoError(t, err)
	assert.Empty(t, executor.calls)
	require.Len(t, provider.lastResults, 1)
	assert.True(t, provider.lastResults[0].IsError)
	assert.Contains(t, provider.lastResults[0].Result, "invalid arguments for get_booking")
	assert.Equal(t, StopComplete, result.StopReason)
}

func TestHandleMessageExecutorFailure(t *testing.T) {
	provider := &scriptedProvider{responses: []*chat.Response{
		toolResponse("call_1", "get_booking", `{"pnr": "ABC123"}`),
		textResponse("I couldn't reach the booking system just now."),
	}}
	executor := &fakeExecutor{err: errors.New("backend unavailable")}
	orch := newTestOrchestrator(t, Config{}, provider, executor)

	result, err := orch.HandleMessage(context.Background(), "s-1", "status of ABC123")
	require.NoError(t, err)
	require.Len(t, provider.lastResults, 1)
	assert.True(t, provider.lastResults[0].IsError)
	assert.Contains(t, provider.lastResults[0].Result, "tool execution failed")
	assert.Equal(t, StopComplete, result.StopReason)
}

type vetoHook struct {
	NopHook
	vetoed []string
}

func (h *vetoHook) PreToolCall(_ context.Context, _ string, call chat.ToolCall) error {
	h.vetoed = append(h.vetoed, call.Name)
	return errors.New("cancellation requires a human agent")
}

func TestHandleMessageHookVeto(t *testing.T) {
	provider := &scriptedProvider{responses: []*chat.Response{
		toolResponse("call_1", "cancel_booking", `{"pnr": "ABC123", "confirm": true}`),
		textResponse("I've asked a colleague to handle the cancellation."),
	}}
	executor := &fakeExecutor{}
	hook := &vetoHook{}
	orch := newTestOrchestrator(t, Config{}, provider, executor).WithHook(hook)

	result, err := orch.HandleMessage(context.Background(), "s-1", "cancel ABC123")
	require.NoError(t, err)
	assert.Empty(t, executor.calls)
	assert.Equal(t, []string{"cancel_booking"}, hook.vetoed)
	require.Len(t, provider.lastResults, 1)
	assert.True(t, provider.lastResults[0].IsError)
	assert.Contains(t, provider.lastResults[0].Result, "tool call rejected")
	assert.Equal(t, StopComplete, result.StopReason)
}

func TestHandleMessageProviderError(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*chat.Response{nil},
		errs:      []error{errors.New("upstream 500")},
	}
	orch := newTestOrchestrator(t, Config{}, provider, &fakeExecutor{})

	result, err := orch.HandleMessage(context.Background(), "s-1", "hi")
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, StopProviderError, result.StopReason)
	assert.Equal(t, DefaultFallbackText, result.Text)
	require.NotEmpty(t, result.Events)
	assert.Equal(t, event.TypeError, result.Events[len(result.Events)-1].Type)
}

func TestHandleMessageDeadline(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*chat.Response{nil},
		errs:      []error{context.DeadlineExceeded},
	}
	orch := newTestOrchestrator(t, Config{}, provider, &fakeExecutor{})

	result, err := orch.HandleMessage(context.Background(), "s-1", "hi")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StopTimeout, result.StopReason)
	assert.Equal(t, DefaultTimeoutText, result.Text)
}

func TestHandleMessageLostSession(t *testing.T) {
	provider := &scriptedProvider{
		responses: []*chat.Response{
			toolResponse("call_1", "get_booking", `{"pnr": "ABC123"}`),
			nil,
		},
		errs: []error{nil, chat.ErrSessionNotFound},
	}
	orch := newTestOrchestrator(t, Config{}, provider, &fakeExecutor{result: chat.ToolResult{Result: "{}"}})

	result, err := orch.HandleMessage(context.Background(), "s-1", "hi")
	require.ErrorIs(t, err, chat.ErrSessionNotFound)
	assert.Equal(t, StopSessionLost, result.StopReason)
}

func TestHandleMessageInputValidation(t *testing.T) {
	orch := newTestOrchestrator(t, Config{}, &scriptedProvider{}, &fakeExecutor{})

	_, err := orch.HandleMessage(context.Background(), "", "hi")
	require.Error(t, err)

	_, err = orch.HandleMessage(context.Background(), "s-1", "   ")
	require.Error(t, err)
}

func TestNewValidation(t *testing.T) {
	catalog := tool.BookingCatalog()

	_, err := New(Config{}, nil, &fakeExecutor{}, catalog)
	require.Error(t, err)

	_, err = New(Config{}, &scriptedProvider{}, nil, catalog)
	require.Error(t, err)

	_, err = New(Config{}, &scriptedProvider{}, &fakeExecutor{}, nil)
	require.Error(t, err)
}
