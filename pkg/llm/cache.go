package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// cacheKeyPrefix namespaces cached completions in a shared Redis.
const cacheKeyPrefix = "onboardlens:llm:"

// CachingClient serves repeated prompts from Redis. Cache failures are logged
// and fall through to the wrapped client; they never fail a request.
type CachingClient struct {
	next   LLMClient
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachingClient wraps next with a Redis response cache.
// Returns next unchanged when rdb is nil.
func NewCachingClient(next LLMClient, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) LLMClient {
	if rdb == nil {
		return next
	}
	return &CachingClient{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: logger.Named("llm_cache"),
	}
}

// GenerateResponse returns a cached completion when one exists for the same
// endpoint, model, system message, temperature and prompt.
func (c *CachingClient) GenerateResponse(
	ctx context.Context,
	prompt string,
	systemMessage string,
	temperature float64,
) (*GenerateResponseResult, error) {
	key := CacheKey(c.next.GetEndpoint(), c.next.GetModel(), systemMessage, temperature, prompt)

	cached, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var result GenerateResponseResult
		if jsonErr := json.Unmarshal(cached, &result); jsonErr == nil {
			c.logger.Debug("LLM cache hit", zap.String("model", c.next.GetModel()))
			return &result, nil
		}
		c.logger.Warn("Discarding corrupt LLM cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("LLM cache read failed", zap.Error(err))
	}

	result, err := c.next.GenerateResponse(ctx, prompt, systemMessage, temperature)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(result); err == nil {
		if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("LLM cache write failed", zap.Error(err))
		}
	}

	return result, nil
}

// GetModel returns the wrapped client's model.
func (c *CachingClient) GetModel() string {
	return c.next.GetModel()
}

// GetEndpoint returns the wrapped client's endpoint.
func (c *CachingClient) GetEndpoint() string {
	return c.next.GetEndpoint()
}

// CacheKey derives the Redis key for a completion request.
func CacheKey(endpoint, model, systemMessage string, temperature float64, prompt string) string {
	h := sha256.New()
	for _, part := range []string{endpoint, model, systemMessage, strconv.FormatFloat(temperature, 'f', -1, 64), prompt} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

var _ LLMClient = (*CachingClient)(nil)
