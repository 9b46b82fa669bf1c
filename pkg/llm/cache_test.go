package llm

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestCacheKey(t *testing.T) {
	base := CacheKey("https://api.groq.com/openai/v1", "llama", "sys", 0.7, "prompt")

	if !strings.HasPrefix(base, cacheKeyPrefix) {
		t.Errorf("expected key prefix %q, got %q", cacheKeyPrefix, base)
	}
	if again := CacheKey("https://api.groq.com/openai/v1", "llama", "sys", 0.7, "prompt"); again != base {
		t.Error("expected identical inputs to give identical keys")
	}

	variants := []string{
		CacheKey("https://api.openai.com/v1", "llama", "sys", 0.7, "prompt"),
		CacheKey("https://api.groq.com/openai/v1", "gpt", "sys", 0.7, "prompt"),
		CacheKey("https://api.groq.com/openai/v1", "llama", "", 0.7, "prompt"),
		CacheKey("https://api.groq.com/openai/v1", "llama", "sys", 0.2, "prompt"),
		CacheKey("https://api.groq.com/openai/v1", "llama", "sys", 0.7, "other"),
		// field boundaries must not collide
		CacheKey("https://api.groq.com/openai/v1", "llamas", "ys", 0.7, "prompt"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base key", i)
		}
	}
}

func TestNewCachingClient_NilRedisReturnsClient(t *testing.T) {
	mock := NewMockLLMClient()

	if got := NewCachingClient(mock, nil, 0, zap.NewNop()); got != LLMClient(mock) {
		t.Error("expected the wrapped client to be returned unchanged")
	}
}
