package mcpexec

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestExecutor runs an in-memory MCP server with fake booking tools and
// points the executor at it through the stubbed transport builder.
func setupTestExecutor(t *testing.T, connects *atomic.Int32) *Executor {
	t.Helper()

	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "booking-backend", Version: "test"}, nil)
	registerBookingTools(server)

	serverTransport, clientTransport := mcpsdk.NewInMemoryTransports()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		session, err := server.Connect(ctx, serverTransport, nil)
		if err != nil {
			return
		}
		<-ctx.Done()
		_ = session.Close()
	}()

	originalBuilder := transportBuilder
	transportBuilder = func(context.Context, string) (mcpsdk.Transport, error) {
		if connects != nil {
			connects.Add(1)
		}
		return clientTransport, nil
	}

	executor := NewExecutor("inmemory")
	t.Cleanup(func() {
		_ = executor.Close()
		cancel()
		<-done
		transportBuilder = originalBuilder
	})
	return executor
}

func registerBookingTools(server *mcpsdk.Server) {
	server.AddTool(&mcpsdk.Tool{
		Name:        "get_booking",
		Description: "Retrieve a booking",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"pnr": {Type: "string"},
			},
			Required: []string{"pnr"},
		},
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var args map[string]string
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return nil, err
		}
		if args["pnr"] != "ABC123" {
			return &mcpsdk.CallToolResult{
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: "booking not found"}},
				IsError: true,
			}, nil
		}
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: `{"pnr":"ABC123","status":"confirmed"}`}},
		}, nil
	})

	server.AddTool(&mcpsdk.Tool{
		Name:        "flight_status",
		Description: "Flight status",
		InputSchema: &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}},
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{
				&mcpsdk.TextContent{Text: "SK802 on time"},
				&mcpsdk.TextContent{Text: "gate B14"},
			},
		}, nil
	})
}

func TestExecuteSuccess(t *testing.T) {
	var connects atomic.Int32
	executor := setupTestExecutor(t, &connects)

	result, err := executor.Execute(context.Background(), "get_booking", `{"pnr": "ABC123"}`)
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.JSONEq(t, `{"pnr":"ABC123","status":"confirmed"}`, result.Result)

	// Second call reuses the session.
	_, err = executor.Execute(context.Background(), "get_booking", `{"pnr": "ABC123"}`)
	require.NoError(t, err)
	assert.Equal(t, int32(1), connects.Load())
}

func TestExecuteBackendError(t *testing.T) {
	executor := setupTestExecutor(t, nil)

	result, err := executor.Execute(context.Background(), "get_booking", `{"pnr": "NOPE99"}`)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, "booking not found", result.Result)
}

func TestExecuteJoinsContentParts(t *testing.T) {
	executor := setupTestExecutor(t, nil)

	result, err := executor.Execute(context.Background(), "flight_status", "{}")
	require.NoError(t, err)
	assert.Equal(t, "SK802 on time\ngate B14", result.Result)
}

func TestExecuteEmptyArguments(t *testing.T) {
	executor := setupTestExecutor(t, nil)

	result, err := executor.Execute(context.Background(), "flight_status", "")
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestExecuteMalformedArguments(t *testing.T) {
	executor := setupTestExecutor(t, nil)

	_, err := executor.Execute(context.Background(), "get_booking", `{"pnr":`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode arguments")
}

func TestExecuteUnknownToolIsProtocolError(t *testing.T) {
	executor := setupTestExecutor(t, nil)

	_, err := executor.Execute(context.Background(), "no_such_tool", "{}")
	require.Error(t, err)
}

func TestToolNames(t *testing.T) {
	executor := setupTestExecutor(t, nil)

	names, err := executor.ToolNames(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"get_booking", "flight_status"}, names)
}

func TestConnectFailureIsSticky(t *testing.T) {
	originalBuilder := transportBuilder
	defer func() { transportBuilder = originalBuilder }()

	var calls atomic.Int32
	transportBuilder = func(context.Context, string) (mcpsdk.Transport, error) {
		calls.Add(1)
		return nil, fmt.Errorf("boom")
	}

	executor := NewExecutor("bad://spec")
	_, err := executor.Execute(context.Background(), "get_booking", "{}")
	require.Error(t, err)
	_, err = executor.ToolNames(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCloseWithoutSession(t *testing.T) {
	executor := NewExecutor("noop")
	require.NoError(t, executor.Close())
}

func TestBuildTransportSpecs(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
		check   func(t *testing.T, transport mcpsdk.Transport)
	}{
		{
			name:    "empty",
			spec:    "",
			wantErr: true,
		},
		{
			name:    "stdio scheme empty command",
			spec:    "stdio://",
			wantErr: true,
		},
		{
			name: "stdio scheme",
			spec: "stdio://booking-backend --port 9000",
			check: func(t *testing.T, transport mcpsdk.Transport) {
				_, ok := transport.(*mcpsdk.CommandTransport)
				assert.True(t, ok)
			},
		},
		{
			name: "bare command",
			spec: "booking-backend",
			check: func(t *testing.T, transport mcpsdk.Transport) {
				_, ok := transport.(*mcpsdk.CommandTransport)
				assert.True(t, ok)
			},
		},
		{
			name: "sse with scheme guess",
			spec: "sse://backend.example.com/mcp",
			check: func(t *testing.T, transport mcpsdk.Transport) {
				sse, ok := transport.(*mcpsdk.SSEClientTransport)
				require.True(t, ok)
				assert.Equal(t, "https://backend.example.com/mcp", sse.Endpoint)
			},
		},
		{
			name: "https streamable",
			spec: "https://backend.example.com/mcp",
			check: func(t *testing.T, transport mcpsdk.Transport) {
				stream, ok := transport.(*mcpsdk.StreamableClientTransport)
				require.True(t, ok)
				assert.Equal(t, "https://backend.example.com/mcp", stream.Endpoint)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			transport, err := buildTransport(context.Background(), tc.spec)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tc.check != nil {
				tc.check(t, transport)
			}
		})
	}
}
