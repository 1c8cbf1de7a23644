// Package provcache applies the shared-resource policy for external
// provider calls: a short-TTL response cache plus a fixed-window rate
// limit, both keyed by (tenant, provider, operation).
package provcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/legalmind/lexrag/internal/db"
	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/metrics"
)

const keyPrefix = "lexrag:prov:"

// store is the consumer interface for provider cache operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Cache is the per-provider response cache and rate limiter.
type Cache struct {
	store       store
	responseTTL time.Duration
	window      time.Duration
	maxPerWin   int64
	logger      *zap.Logger
	group       singleflight.Group
}

// New creates a provider cache. maxPerWindow <= 0 disables rate limiting.
func New(s store, responseTTL, window time.Duration, maxPerWindow int64, logger *zap.Logger) *Cache {
	return &Cache{
		store:       s,
		responseTTL: responseTTL,
		window:      window,
		maxPerWin:   maxPerWindow,
		logger:      logger,
	}
}

// GetOrCall returns the cached response for (tenant, provider, op, input)
// or invokes call and caches its result. Concurrent identical requests
// collapse onto one in-flight call: followers wait for the leader's result
// instead of invoking the provider themselves.
func (c *Cache) GetOrCall(
	ctx context.Context,
	tenantID, provider, op, input string,
	call func(ctx context.Context) ([]byte, error),
) ([]byte, error) {
	key := c.responseKey(tenantID, provider, op, input)

	v, err, _ := c.group.Do(key, func() (any, error) {
		if data, err := c.store.Get(ctx, key); err == nil {
			metrics.CacheTotal.WithLabelValues("provider", "hit").Inc()
			return data, nil
		} else if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read provider cache", zap.Error(err))
		}

		metrics.CacheTotal.WithLabelValues("provider", "miss").Inc()

		if err := c.Allow(ctx, tenantID, provider, op); err != nil {
			return nil, err
		}

		data, err := call(ctx)
		if err != nil {
			return nil, err
		}

		if _, err := c.store.SetNX(ctx, key, data, c.responseTTL); err != nil {
			c.logger.Warn("Failed to write provider cache", zap.Error(err))
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Allow checks the fixed-window rate limit for (tenant, provider, op).
func (c *Cache) Allow(ctx context.Context, tenantID, provider, op string) error {
	if c.maxPerWin <= 0 {
		return nil
	}

	key := fmt.Sprintf("%srl:%s:%s:%s", keyPrefix, tenantID, provider, op)
	n, err := c.store.IncrBy(ctx, key, 1)
	if err != nil {
		// Fail open: a broken limiter must not take the engine down.
		c.logger.Warn("Rate limit counter failed", zap.Error(err))
		return nil
	}
	// TTL only on first hit in the window (EXPIRE NX).
	if err := c.store.Expire(ctx, key, c.window, true); err != nil {
		c.logger.Warn("Rate limit expire failed", zap.Error(err))
	}

	if n > c.maxPerWin {
		return fmt.Errorf("provider %s op %s: %w", provider, op, domain.ErrRateLimited)
	}
	return nil
}

func (c *Cache) responseKey(tenantID, provider, op, input string) string {
	h := sha256.Sum256([]byte(input))
	return fmt.Sprintf("%sresp:%s:%s:%s:%s", keyPrefix, tenantID, provider, op, hex.EncodeToString(h[:]))
}
