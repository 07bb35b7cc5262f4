package agent

import (
	"time"

	"github.com/skylinkair/pilot/pkg/event"
)

// Stop reasons reported on TurnResult.StopReason.
const (
	StopComplete       = "complete"
	StopRoundsExceeded = "rounds_exceeded"
	StopTimeout        = "timeout"
	StopSessionLost    = "session_lost"
	StopProviderError  = "provider_error"
)

// ExecutedCall records one tool invocation performed during a turn.
type ExecutedCall struct {
	ID        string
	Name      string
	Arguments string
	Result    string
	IsError   bool
	Duration  time.Duration
}

// TurnResult is the outcome of one HandleMessage call. Text is always safe
// to show to the end user.
type TurnResult struct {
	Text       string
	ToolCalls  []ExecutedCall
	StopReason string
	Events     []event.Event
}

func (r *TurnResult) appendEvent(e event.Event) {
	r.Events = append(r.Events, e)
}
