package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/logging"
)

// maxLoggedArrayItems caps how many elements of an array argument are logged.
// Funnel calls carry one entry per step, and the count is what matters.
const maxLoggedArrayItems = 5

var sensitiveArgFragments = []string{"password", "secret", "token", "key", "credential", "signature"}

type mcpCall struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

type mcpReply struct {
	Result *struct {
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// MCPRequestLogger logs one debug line per MCP call with the JSON-RPC method,
// tool, project and outcome. A nil logger disables it.
func MCPRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Error("Failed to read MCP request body", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			var call mcpCall
			if err := json.Unmarshal(body, &call); err != nil {
				logger.Debug("MCP request is not a single JSON-RPC call", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			tee := &teeWriter{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(tee, r)

			fields := []zap.Field{
				zap.String("method", call.Method),
				zap.Duration("duration", time.Since(start)),
			}
			if len(call.ID) > 0 {
				fields = append(fields, zap.String("rpc_id", string(call.ID)))
			}
			if call.Params.Name != "" {
				fields = append(fields, zap.String("tool", call.Params.Name))
			}
			if pid, ok := call.Params.Arguments["project_id"].(string); ok {
				fields = append(fields, zap.String("project_id", pid))
			}
			if args := summarizeArguments(call.Params.Arguments); len(args) > 0 {
				fields = append(fields, zap.Any("arguments", args))
			}

			var reply mcpReply
			if err := json.Unmarshal(tee.body.Bytes(), &reply); err != nil {
				// SSE streams are not a single JSON document.
				logger.Debug("MCP call", append(fields, zap.String("outcome", "streamed"))...)
				return
			}

			switch {
			case reply.Error != nil:
				logger.Debug("MCP call failed", append(fields,
					zap.Int("error_code", reply.Error.Code),
					zap.String("error_message", reply.Error.Message),
				)...)
			case reply.Result != nil && reply.Result.IsError:
				logger.Debug("MCP call", append(fields, zap.String("outcome", "tool_error"))...)
			default:
				logger.Debug("MCP call", append(fields, zap.String("outcome", "ok"))...)
			}
		})
	}
}

type teeWriter struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (t *teeWriter) Write(b []byte) (int, error) {
	t.body.Write(b)
	return t.ResponseWriter.Write(b)
}

func (t *teeWriter) Flush() {
	if f, ok := t.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// summarizeArguments redacts sensitive values, truncates long strings and
// shortens arrays such as step_names to their first few items plus a count.
func summarizeArguments(args map[string]any) map[string]any {
	if len(args) == 0 {
		return nil
	}

	out := make(map[string]any, len(args))
	for k, v := range args {
		if isSensitiveArg(k) {
			out[k] = logging.RedactedText
			continue
		}
		switch val := v.(type) {
		case string:
			out[k] = logging.TruncateString(val, logging.MaxValueLogLength)
		case []any:
			if len(val) > maxLoggedArrayItems {
				out[k] = map[string]any{"first": val[:maxLoggedArrayItems], "count": len(val)}
			} else {
				out[k] = val
			}
		default:
			out[k] = v
		}
	}
	return out
}

func isSensitiveArg(key string) bool {
	lower := strings.ToLower(key)
	for _, frag := range sensitiveArgFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}
