package session

import (
	"github.com/skylinkair/pilot/pkg/chat"
)

// State holds the conversation history for one session: an immutable system
// prompt captured at creation and an append-only message list. A State
// retrieved from the store is exclusively owned by the adapter call that
// fetched it; history is never rewritten, only appended to.
type State struct {
	systemPrompt string
	messages     []chat.Message
}

// NewState constructs conversation state with the given system prompt.
func NewState(systemPrompt string) *State {
	return &State{
		systemPrompt: systemPrompt,
		messages:     make([]chat.Message, 0, 8),
	}
}

// SystemPrompt returns the prompt captured when the session was created.
func (s *State) SystemPrompt() string {
	return s.systemPrompt
}

// Append adds a message to the history.
func (s *State) Append(role, content string) {
	s.messages = append(s.messages, chat.Message{Role: role, Content: content})
}

// Messages returns a copy of the history so callers cannot alias the
// underlying slice across turns.
func (s *State) Messages() []chat.Message {
	out := make([]chat.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len reports the number of messages in the history.
func (s *State) Len() int {
	return len(s.messages)
}
