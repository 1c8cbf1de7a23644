// Package classcache is the classification cache: an explicit component
// with TTL-based eviction and clear-on-demand, injected where needed
// instead of living as process-global state.
package classcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/legalmind/lexrag/internal/db"
	"github.com/legalmind/lexrag/internal/domain/category"
	"github.com/legalmind/lexrag/internal/metrics"
)

const keyPrefix = "lexrag:class_cache:"

// store is the consumer interface for cache operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Cache stores (query → category) pairs keyed by tenant, with a TTL.
type Cache struct {
	store  store
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a classification cache.
func New(s store, ttl time.Duration, logger *zap.Logger) *Cache {
	return &Cache{store: s, ttl: ttl, logger: logger}
}

// Get returns the cached category for (tenant, query), if any.
func (c *Cache) Get(ctx context.Context, tenantID, query string) (category.Category, bool) {
	data, err := c.store.Get(ctx, c.key(tenantID, query))
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read classification cache", zap.Error(err))
		}
		metrics.CacheTotal.WithLabelValues("classification", "miss").Inc()
		return "", false
	}

	cat := category.Category(data)
	if !cat.IsValid() {
		metrics.CacheTotal.WithLabelValues("classification", "miss").Inc()
		return "", false
	}

	metrics.CacheTotal.WithLabelValues("classification", "hit").Inc()
	return cat, true
}

// Put stores a classification result. Failures are logged, not returned:
// a broken cache must not break classification.
func (c *Cache) Put(ctx context.Context, tenantID, query string, cat category.Category) {
	if err := c.store.SetWithTTL(ctx, c.key(tenantID, query), []byte(cat), c.ttl); err != nil {
		c.logger.Warn("Failed to write classification cache", zap.Error(err))
	}
}

// Clear drops the cached entry for (tenant, query).
func (c *Cache) Clear(ctx context.Context, tenantID, query string) {
	if err := c.store.Del(ctx, c.key(tenantID, query)); err != nil {
		c.logger.Warn("Failed to clear classification cache", zap.Error(err))
	}
}

func (c *Cache) key(tenantID, query string) string {
	h := sha256.Sum256([]byte(tenantID + "\x00" + query))
	return keyPrefix + hex.EncodeToString(h[:])
}
