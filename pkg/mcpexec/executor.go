// Package mcpexec executes tool calls against a booking backend exposed as
// an MCP server. It is the production Executor for the orchestrator; the
// backend may run as a child process over stdio or as a remote HTTP service.
package mcpexec

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os/exec"
	"strings"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/skylinkair/pilot/pkg/chat"
)

// transportBuilder is overridden in tests to stub the transport factory.
var transportBuilder = buildTransport

const (
	stdioSchemePrefix = "stdio://"
	sseSchemePrefix   = "sse://"
)

// Executor bridges orchestrator tool calls onto an MCP session. The session
// is established lazily on first use and reused for the process lifetime.
type Executor struct {
	client  *mcpsdk.Client
	session *mcpsdk.ClientSession
	spec    string

	once       sync.Once
	connectErr error
}

// NewExecutor creates an executor for the given transport spec. Supported
// forms: "stdio://<command...>" or a bare command line for a child process,
// "sse://<endpoint>" for server-sent events, and "http(s)://<endpoint>" for
// the streamable HTTP transport.
func NewExecutor(spec string) *Executor {
	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "pilot", Version: "dev"}, nil)
	return &Executor{client: client, spec: spec}
}

func (e *Executor) connect(ctx context.Context) error {
	e.once.Do(func() {
		transport, err := transportBuilder(ctx, e.spec)
		if err != nil {
			e.connectErr = fmt.Errorf("mcpexec: build transport: %w", err)
			return
		}
		session, err := e.client.Connect(ctx, transport, nil)
		if err != nil {
			e.connectErr = fmt.Errorf("mcpexec: connect: %w", err)
			return
		}
		e.session = session
	})
	return e.connectErr
}

// Execute performs one tool call. Backend-reported tool failures come back
// as an error ToolResult with a nil error so the model can react; transport
// and protocol failures return a non-nil error.
func (e *Executor) Execute(ctx context.Context, name, argumentsJSON string) (chat.ToolResult, error) {
	if err := e.connect(ctx); err != nil {
		return chat.ToolResult{}, err
	}

	args := map[string]any{}
	if trimmed := strings.TrimSpace(argumentsJSON); trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
			return chat.ToolResult{}, fmt.Errorf("mcpexec: decode arguments for %s: %w", name, err)
		}
	}

	result, err := e.session.CallTool(ctx, &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return chat.ToolResult{}, fmt.Errorf("mcpexec: call %s: %w", name, err)
	}
	return chat.ToolResult{
		Result:  flattenContent(result),
		IsError: result.IsError,
	}, nil
}

// ToolNames lists the tool names the backend advertises. The orchestrator's
// catalog is authoritative for the model; this exists so startup code can
// verify the backend actually serves what the catalog promises.
func (e *Executor) ToolNames(ctx context.Context) ([]string, error) {
	if err := e.connect(ctx); err != nil {
		return nil, err
	}
	var names []string
	for tool, err := range e.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("mcpexec: list tools: %w", err)
		}
		names = append(names, tool.Name)
	}
	return names, nil
}

// Close shuts down the underlying session, if one was established.
func (e *Executor) Close() error {
	if e == nil || e.session == nil {
		return nil
	}
	err := e.session.Close()
	e.session = nil
	return err
}

// flattenContent joins the text parts of a tool result into the single
// string the conversation layer expects.
func flattenContent(result *mcpsdk.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, content := range result.Content {
		if text, ok := content.(*mcpsdk.TextContent); ok && text.Text != "" {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func buildTransport(ctx context.Context, spec string) (mcpsdk.Transport, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("transport spec is empty")
	}

	lowered := strings.ToLower(spec)
	switch {
	case strings.HasPrefix(lowered, stdioSchemePrefix):
		return buildStdioTransport(ctx, spec[len(stdioSchemePrefix):])
	case strings.HasPrefix(lowered, sseSchemePrefix):
		endpoint, err := normalizeEndpoint(spec[len(sseSchemePrefix):], true)
		if err != nil {
			return nil, fmt.Errorf("invalid SSE endpoint: %w", err)
		}
		return &mcpsdk.SSEClientTransport{Endpoint: endpoint}, nil
	case strings.HasPrefix(lowered, "http://"), strings.HasPrefix(lowered, "https://"):
		endpoint, err := normalizeEndpoint(spec, false)
		if err != nil {
			return nil, fmt.Errorf("invalid HTTP endpoint: %w", err)
		}
		return &mcpsdk.StreamableClientTransport{Endpoint: endpoint}, nil
	}
	return buildStdioTransport(ctx, spec)
}

func buildStdioTransport(ctx context.Context, cmdSpec string) (mcpsdk.Transport, error) {
	parts := strings.Fields(strings.TrimSpace(cmdSpec))
	if len(parts) == 0 {
		return nil, fmt.Errorf("stdio command is empty")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	// #nosec G204 -- cmdSpec comes from operator configuration, not user chat input
	command := exec.CommandContext(ctx, parts[0], parts[1:]...)
	return &mcpsdk.CommandTransport{Command: command}, nil
}

func normalizeEndpoint(raw string, allowSchemeGuess bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("endpoint is empty")
	}
	if allowSchemeGuess && !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("missing host")
	}
	parsed.Scheme = scheme
	return parsed.String(), nil
}
