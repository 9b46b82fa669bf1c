package tools

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/onboardlens/onboardlens/pkg/jsonutil"
)

func arguments(req mcp.CallToolRequest) map[string]any {
	args, _ := req.Params.Arguments.(map[string]any)
	return args
}

// getStringSlice extracts an array of strings, skipping blank and non-string entries.
func getStringSlice(req mcp.CallToolRequest, key string) []string {
	raw, ok := arguments(req)[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// getInt64Slice extracts an array of whole numbers. Entries may be numbers,
// numeric strings or null, the same shapes the ingest endpoint accepts.
func getInt64Slice(req mcp.CallToolRequest, key string) ([]int64, bool, error) {
	v, ok := arguments(req)[key]
	if !ok || v == nil {
		return nil, false, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, true, err
	}
	out, err := jsonutil.FlexibleInt64Slice(raw)
	return out, true, err
}

// getInt64 extracts a whole number argument.
func getInt64(req mcp.CallToolRequest, key string) (int64, bool, error) {
	v, ok := arguments(req)[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return 0, true, err
	}
	n, err := jsonutil.FlexibleInt64(raw)
	return n, true, err
}

func getOptionalBool(req mcp.CallToolRequest, key string) bool {
	b, _ := arguments(req)[key].(bool)
	return b
}

func getOptionalString(req mcp.CallToolRequest, key string) string {
	s, _ := arguments(req)[key].(string)
	return strings.TrimSpace(s)
}
