package chat

// Known message roles used in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message represents a single conversational turn exchanged with a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ToolCall captures a tool invocation extracted from model output. Arguments
// is kept as raw JSON text; validation against the tool catalog happens in
// the orchestration layer, not here.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult carries the outcome of a tool invocation back to the provider.
// Result is text, typically JSON produced by the booking backend.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Result     string `json:"result"`
	IsError    bool   `json:"is_error"`
}

// Stop reasons reported in Response.StopReason.
const (
	StopComplete = "complete"
	StopToolCall = "tool_call"
)

// Response is the unit returned by every Provider call. IsComplete is true
// exactly when no tool call is pending, which signals the orchestration loop
// to stop.
type Response struct {
	Text       string     `json:"text"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	IsComplete bool       `json:"is_complete"`
	StopReason string     `json:"stop_reason,omitempty"`
}
