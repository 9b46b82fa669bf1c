package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/onboardlens/onboardlens/pkg/logging"
)

func replyWith(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func serveMCP(t *testing.T, next http.Handler, reqBody string) (*httptest.ResponseRecorder, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(reqBody))
	rec := httptest.NewRecorder()
	MCPRequestLogger(zap.New(core))(next).ServeHTTP(rec, req)
	return rec, logs
}

func TestMCPRequestLogger_Outcomes(t *testing.T) {
	const call = `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"get_latest_report","arguments":{"project_id":"6f1c2b1e-8d2a-4a57-9d51-0c1f2a3b4c5d"}}}`

	tests := []struct {
		name    string
		reply   string
		message string
		outcome string
	}{
		{
			name:    "success",
			reply:   `{"jsonrpc":"2.0","id":7,"result":{"content":[{"type":"text","text":"{}"}]}}`,
			message: "MCP call",
			outcome: "ok",
		},
		{
			name:    "tool error result",
			reply:   `{"jsonrpc":"2.0","id":7,"result":{"isError":true,"content":[{"type":"text","text":"no report"}]}}`,
			message: "MCP call",
			outcome: "tool_error",
		},
		{
			name:    "streamed",
			reply:   "event: message\ndata: {}\n\n",
			message: "MCP call",
			outcome: "streamed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, logs := serveMCP(t, replyWith(tt.reply), call)

			assert.Equal(t, tt.reply, rec.Body.String(), "response must pass through unchanged")
			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.message, entry.Message)
			fields := entry.ContextMap()
			assert.Equal(t, "tools/call", fields["method"])
			assert.Equal(t, "get_latest_report", fields["tool"])
			assert.Equal(t, "7", fields["rpc_id"])
			assert.Equal(t, "6f1c2b1e-8d2a-4a57-9d51-0c1f2a3b4c5d", fields["project_id"])
			assert.Equal(t, tt.outcome, fields["outcome"])
		})
	}
}

func TestMCPRequestLogger_JSONRPCError(t *testing.T) {
	_, logs := serveMCP(t,
		replyWith(`{"jsonrpc":"2.0","id":1,"error":{"code":-32603,"message":"failed to list projects"}}`),
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_projects"}}`,
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "MCP call failed", entry.Message)
	assert.Equal(t, int64(-32603), entry.ContextMap()["error_code"])
	assert.Equal(t, "failed to list projects", entry.ContextMap()["error_message"])
}

func TestMCPRequestLogger_RequestBodyStillReadable(t *testing.T) {
	const reqBody = `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := new(strings.Builder)
		_, _ = b.ReadFrom(r.Body)
		seen = b.String()
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":2,"result":{"tools":[]}}`))
	})

	_, logs := serveMCP(t, next, reqBody)

	assert.Equal(t, reqBody, seen)
	require.Equal(t, 1, logs.Len())
	_, hasTool := logs.All()[0].ContextMap()["tool"]
	assert.False(t, hasTool, "tools/list has no tool name")
}

func TestMCPRequestLogger_InvalidJSON(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	_, logs := serveMCP(t, next, "not json")

	assert.True(t, called)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "MCP request is not a single JSON-RPC call", logs.All()[0].Message)
}

func TestMCPRequestLogger_NilLoggerPassesThrough(t *testing.T) {
	next := replyWith(`{}`)
	handler := MCPRequestLogger(nil)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`)))

	assert.Equal(t, `{}`, rec.Body.String())
}

func TestSummarizeArguments(t *testing.T) {
	steps := []any{"Sign up", "Verify email", "Profile", "Invite team", "First project", "Billing", "Go live"}

	got := summarizeArguments(map[string]any{
		"step_names":       steps,
		"step_completions": []any{float64(100), float64(80)},
		"total_users":      float64(120),
		"api_key":          "sk-live-123",
		"webhookSignature": "abc",
		"note":             strings.Repeat("x", logging.MaxValueLogLength+50),
	})

	assert.Equal(t, map[string]any{"first": steps[:maxLoggedArrayItems], "count": 7}, got["step_names"])
	assert.Equal(t, []any{float64(100), float64(80)}, got["step_completions"])
	assert.Equal(t, float64(120), got["total_users"])
	assert.Equal(t, logging.RedactedText, got["api_key"])
	assert.Equal(t, logging.RedactedText, got["webhookSignature"])
	assert.Less(t, len(got["note"].(string)), logging.MaxValueLogLength+50)

	assert.Nil(t, summarizeArguments(nil))
}
