package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error_WithStatusCodeAndModel(t *testing.T) {
	err := &Error{
		Type:       ErrorTypeEndpoint,
		Message:    "server error",
		StatusCode: 503,
		Model:      "llama-3.1-70b-versatile",
	}

	result := err.Error()
	if !strings.Contains(result, "HTTP 503") {
		t.Errorf("expected error message to contain 'HTTP 503', got: %s", result)
	}
	if !strings.Contains(result, "model=llama-3.1-70b-versatile") {
		t.Errorf("expected model in message, got: %s", result)
	}
}

func TestError_Error_EndpointRedactedToHost(t *testing.T) {
	err := &Error{
		Type:     ErrorTypeEndpoint,
		Message:  "connection failed",
		Endpoint: "https://api.groq.com/openai/v1",
	}

	result := err.Error()
	if !strings.Contains(result, "endpoint=api.groq.com") {
		t.Errorf("expected host in message, got: %s", result)
	}
	if strings.Contains(result, "/openai/v1") {
		t.Errorf("endpoint should be redacted to host only, got: %s", result)
	}
}

func TestError_Error_WithCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewError(ErrorTypeEndpoint, "connection failed", true, cause)

	if !strings.HasSuffix(err.Error(), ": dial tcp: connection refused") {
		t.Errorf("expected cause suffix, got: %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantType   ErrorType
		wantRetry  bool
		wantStatus int
	}{
		{name: "auth", err: errors.New("error, status code: 401, message: Invalid API Key"), wantType: ErrorTypeAuth, wantStatus: 401},
		{name: "anthropic auth", err: errors.New("anthropic api error type: authentication_error, message: invalid x-api-key"), wantType: ErrorTypeAuth},
		{name: "model missing", err: errors.New("status code: 404, message: The model `llama-9` does not exist"), wantType: ErrorTypeModel, wantStatus: 404},
		{name: "decommissioned model", err: errors.New("The model llama-3.1-70b-versatile has been decommissioned"), wantType: ErrorTypeModel},
		{name: "endpoint 404", err: errors.New("status code: 404, page not found"), wantType: ErrorTypeEndpoint, wantStatus: 404},
		{name: "rate limit", err: errors.New("status code: 429, Rate limit reached"), wantType: ErrorTypeRateLimit, wantRetry: true, wantStatus: 429},
		{name: "gemini quota", err: errors.New("Error 429, RESOURCE_EXHAUSTED"), wantType: ErrorTypeRateLimit, wantRetry: true, wantStatus: 429},
		{name: "timeout", err: errors.New("Post \"https://api.groq.com\": context deadline exceeded"), wantType: ErrorTypeEndpoint, wantRetry: true},
		{name: "canceled", err: fmt.Errorf("request: %w", context.Canceled), wantType: ErrorTypeEndpoint},
		{name: "refused", err: errors.New("dial tcp 127.0.0.1:8000: connection refused"), wantType: ErrorTypeEndpoint, wantRetry: true},
		{name: "server error", err: errors.New("status code: 502, bad gateway"), wantType: ErrorTypeEndpoint, wantRetry: true, wantStatus: 502},
		{name: "unknown", err: errors.New("something odd"), wantType: ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			if got.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", got.Type, tt.wantType)
			}
			if got.Retryable != tt.wantRetry {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.wantRetry)
			}
			if got.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", got.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestClassifyError_Nil(t *testing.T) {
	if ClassifyError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestClassifyError_PreservesExistingError(t *testing.T) {
	original := NewError(ErrorTypeModel, "custom", false, nil)
	wrapped := fmt.Errorf("generate insights: %w", original)

	if got := ClassifyError(wrapped); got != original {
		t.Errorf("expected original *Error to be returned, got %v", got)
	}
}

func TestExtractStatusCode_Precision(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"status code: 503", 503},
		{"used 15003 tokens", 0},
		{"port 4290 closed", 0},
		{"HTTP 429 Too Many Requests", 429},
	}
	for _, tt := range tests {
		if got := extractStatusCode(tt.in); got != tt.want {
			t.Errorf("extractStatusCode(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestIsRetryableAndGetErrorType(t *testing.T) {
	err := fmt.Errorf("wrap: %w", NewError(ErrorTypeRateLimit, "rate limited", true, nil))

	if !IsRetryable(err) {
		t.Error("expected wrapped rate limit to be retryable")
	}
	if GetErrorType(err) != ErrorTypeRateLimit {
		t.Errorf("expected rate_limit type, got %q", GetErrorType(err))
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain errors are not retryable")
	}
	if GetErrorType(errors.New("plain")) != ErrorTypeUnknown {
		t.Error("plain errors have unknown type")
	}
}
