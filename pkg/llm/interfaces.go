// Package llm provides language-model clients for AI insights.
// OpenAI-compatible endpoints (Groq by default), Anthropic and Gemini sit
// behind one interface so services never depend on a provider SDK.
package llm

import (
	"context"
)

// LLMClient defines the interface for LLM operations.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse generates a single completion for prompt.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint or provider name.
	GetEndpoint() string
}

// GenerateResponseResult holds the completion text and token usage.
type GenerateResponseResult struct {
	Content          string `json:"content"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
}

// Provider names accepted in configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// DefaultMaxTokens caps completion length when a config leaves it unset.
const DefaultMaxTokens = 1000
