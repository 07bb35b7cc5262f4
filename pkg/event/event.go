// Package event defines the lifecycle events emitted while a conversation
// turn is orchestrated, plus an SSE writer so HTTP callers can replay them.
// Events are operator-facing telemetry; they carry tool names and timings
// but never the raw tool-call JSON shown to nobody.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Type enumerates the known event kinds.
type Type string

const (
	TypeTurnAccepted Type = "turn_accepted"
	TypeModelRound   Type = "model_round"
	TypeToolCall     Type = "tool_call"
	TypeToolResult   Type = "tool_result"
	TypeCompletion   Type = "completion"
	TypeError        Type = "error"
)

// Event is a single lifecycle occurrence within a turn.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// New constructs an event with a fresh id and UTC timestamp.
func New(t Type, sessionID string, data any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		SessionID: sessionID,
		Data:      data,
	}
}

// TurnData describes the start of a turn.
type TurnData struct {
	Stage string `json:"stage"`
}

// ModelRoundData marks one outbound model call.
type ModelRoundData struct {
	Round int `json:"round"`
}

// ToolCallData records a tool invocation request.
type ToolCallData struct {
	Name string `json:"name"`
}

// ToolResultData records a tool outcome.
type ToolResultData struct {
	Name     string        `json:"name"`
	IsError  bool          `json:"is_error"`
	Duration time.Duration `json:"duration"`
}

// CompletionData summarizes a finished turn.
type CompletionData struct {
	StopReason string `json:"stop_reason"`
	Rounds     int    `json:"rounds"`
}

// ErrorData describes a failure observed during the turn.
type ErrorData struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
