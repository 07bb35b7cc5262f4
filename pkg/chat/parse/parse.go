// Package parse extracts at most one structured tool call from free-form
// model output. The remote models this project targets have no native
// function calling, so tool requests arrive embedded in text: inside a
// fenced code block, as a bare JSON object surrounded by prose, or not at
// all. Parsing failure always degrades to plain text, never to an error.
package parse

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/skylinkair/pilot/pkg/chat"
)

// fencedBlockPattern matches a triple-backtick block optionally tagged
// tool_call or json. (?s) lets the body span multiple lines.
var fencedBlockPattern = regexp.MustCompile("(?s)```(?:tool_call|json)?[ \\t]*\\n?(.*?)```")

// namePrefix is the literal that anchors the bare-JSON strategy.
const namePrefix = `{"name"`

// Parse applies the two extraction strategies in order: a fenced block
// first, then a brace-balanced scan for a bare JSON object. It returns the
// input with the consumed tool-call substring removed and trimmed, so user
// visible commentary survives while raw JSON does not. When no valid tool
// call exists, ok is false and text is the input unchanged.
func Parse(raw string) (text string, call *chat.ToolCall, ok bool) {
	if text, call, ok = tryFencedBlock(raw); ok {
		return text, call, true
	}
	if text, call, ok = tryBareJSON(raw); ok {
		return text, call, true
	}
	return raw, nil, false
}

// tryFencedBlock locates the first fenced code block and attempts to decode
// its body as a tool call. A block whose body is not a tool call yields no
// match, letting the bare-JSON strategy inspect the full text.
func tryFencedBlock(raw string) (string, *chat.ToolCall, bool) {
	loc := fencedBlockPattern.FindStringSubmatchIndex(raw)
	if loc == nil {
		return "", nil, false
	}
	body := raw[loc[2]:loc[3]]
	call, ok := decodeToolCall(body)
	if !ok {
		return "", nil, false
	}
	cleaned := strings.TrimSpace(raw[:loc[0]] + raw[loc[1]:])
	return cleaned, call, true
}

// tryBareJSON scans for `{"name":` (tolerating whitespace before the colon)
// and extracts a brace-balanced object starting there. Later occurrences are
// tried only when an earlier one does not form a valid tool call; when the
// model emits several sequential calls, everything after the first balanced
// one is deliberately ignored.
func tryBareJSON(raw string) (string, *chat.ToolCall, bool) {
	offset := 0
	for {
		idx := strings.Index(raw[offset:], namePrefix)
		if idx < 0 {
			return "", nil, false
		}
		start := offset + idx
		if !colonFollows(raw[start+len(namePrefix):]) {
			offset = start + len(namePrefix)
			continue
		}

		candidate, end, balanced := extractBalancedObject(raw, start)
		if balanced {
			if call, ok := decodeToolCall(candidate); ok {
				cleaned := strings.TrimSpace(raw[:start] + raw[end:])
				return cleaned, call, true
			}
		}
		offset = start + len(namePrefix)
	}
}

// colonFollows reports whether s begins with an optional run of spaces or
// tabs followed by a colon.
func colonFollows(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t':
			continue
		case ':':
			return true
		default:
			return false
		}
	}
	return false
}

// extractBalancedObject walks raw from start (which must point at '{') and
// returns the substring up to the matching close brace. Braces inside JSON
// strings are skipped, so nested objects and arrays in the arguments do not
// break the count.
func extractBalancedObject(raw string, start int) (candidate string, end int, ok bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], i + 1, true
			}
		}
	}
	return "", 0, false
}

// decodeToolCall parses raw as a JSON object with a required name field.
// Arguments are kept as raw JSON text; schema validation belongs to the
// orchestration layer.
func decodeToolCall(raw string) (*chat.ToolCall, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed[0] != '{' {
		return nil, false
	}

	var payload struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return nil, false
	}
	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return nil, false
	}

	arguments := strings.TrimSpace(string(payload.Arguments))
	if arguments == "" || arguments == "null" {
		arguments = "{}"
	}
	return &chat.ToolCall{Name: name, Arguments: arguments}, true
}
