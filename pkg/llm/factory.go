package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/onboardlens/onboardlens/pkg/apperrors"
	"github.com/onboardlens/onboardlens/pkg/config"
)

// NewClientFromConfig creates the configured provider's client, wrapped with
// the Redis response cache when rdb is non-nil.
// Returns apperrors.ErrNotConfigured when no provider, model or key is set.
func NewClientFromConfig(ctx context.Context, cfg *config.LLMConfig, rdb *redis.Client, cacheTTL time.Duration, logger *zap.Logger) (LLMClient, error) {
	if !cfg.IsAvailable() {
		return nil, apperrors.ErrNotConfigured
	}

	clientCfg := &Config{
		Endpoint:  cfg.BaseURL,
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		MaxTokens: cfg.MaxTokens,
		Timeout:   cfg.Timeout,
	}

	var (
		client LLMClient
		err    error
	)
	switch cfg.Provider {
	case ProviderOpenAI:
		client, err = NewClient(clientCfg, logger)
	case ProviderAnthropic:
		client, err = NewAnthropicClient(clientCfg, logger)
	case ProviderGemini:
		client, err = NewGeminiClient(ctx, clientCfg, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}

	return NewCachingClient(client, rdb, cacheTTL, logger), nil
}
