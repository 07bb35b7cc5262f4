package agent

import "time"

const (
	// DefaultMaxToolRounds bounds chained tool calls within one turn. The
	// booking flows need at most two or three dependent lookups; anything
	// beyond that is the model looping.
	DefaultMaxToolRounds = 5

	// DefaultFallbackText is returned when the turn cannot produce a real
	// answer. It must never leak tool names or raw payloads.
	DefaultFallbackText = "I'm sorry, I wasn't able to complete that request. Please try again."

	// DefaultTimeoutText is returned when the turn deadline fires.
	DefaultTimeoutText = "That took longer than expected. Please try again."
)

// Config tunes the orchestration loop.
type Config struct {
	// MaxToolRounds caps the number of tool result round trips per turn.
	MaxToolRounds int

	// TurnTimeout bounds the whole turn including all model calls and tool
	// executions. Zero disables the per-turn deadline.
	TurnTimeout time.Duration

	// FallbackText is the user-facing reply for failed turns.
	FallbackText string

	// TimeoutText is the user-facing reply when the turn deadline fires.
	TimeoutText string
}

func (c Config) normalize() Config {
	if c.MaxToolRounds <= 0 {
		c.MaxToolRounds = DefaultMaxToolRounds
	}
	if c.FallbackText == "" {
		c.FallbackText = DefaultFallbackText
	}
	if c.TimeoutText == "" {
		c.TimeoutText = DefaultTimeoutText
	}
	return c
}
