package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/onboardlens/onboardlens/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// Actionable errors are returned as a successful tool result so the
// client model sees the details instead of a bare protocol error.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for errors the caller can fix (bad arguments, unknown project).
// System failures such as a lost database connection are returned as Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
//
// Example:
//
//	return NewErrorResultWithDetails(
//	    "invalid_input",
//	    "step_completions has more entries than step_names",
//	    map[string]any{"steps": 3, "completions": 5},
//	), nil
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// ErrorCode maps a service error to a tool error code. It returns "" for
// errors the caller cannot act on.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, apperrors.ErrUnauthorized):
		return "authentication_required"
	case errors.Is(err, apperrors.ErrNotConfigured):
		return "not_configured"
	}
	return ""
}

// resultFromError converts actionable service errors into error results and
// passes everything else through as a Go error.
func resultFromError(err error, message string) (*mcp.CallToolResult, error) {
	if code := ErrorCode(err); code != "" {
		return NewErrorResult(code, message), nil
	}
	return nil, err
}

// jsonResult marshals v as the text content of a tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}
