package provcache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/legalmind/lexrag/internal/domain"
)

// Model decorates a language model with the provider cache and rate limit.
// Identical prompts from one tenant within the TTL hit the cache instead of
// the provider. Streaming calls bypass the response cache (chunk delivery
// cannot be replayed) but still count against the rate limit.
type Model struct {
	inner    domain.LanguageModel
	cache    *Cache
	provider string
}

var _ domain.LanguageModel = (*Model)(nil)

// NewModel wraps a language model with caching and rate limiting.
func NewModel(inner domain.LanguageModel, cache *Cache, provider string) *Model {
	return &Model{inner: inner, cache: cache, provider: provider}
}

// Complete implements domain.LanguageModel.
func (m *Model) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	input, err := json.Marshal(req)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("marshal completion request: %w", err)
	}

	tenant := domain.TenantFromContext(ctx)
	data, err := m.cache.GetOrCall(ctx, tenant, m.provider, "complete", string(input),
		func(ctx context.Context) ([]byte, error) {
			res, err := m.inner.Complete(ctx, req)
			if err != nil {
				return nil, err
			}
			return json.Marshal(res)
		})
	if err != nil {
		return domain.CompletionResult{}, err
	}

	var res domain.CompletionResult
	if err := json.Unmarshal(data, &res); err != nil {
		return domain.CompletionResult{}, fmt.Errorf("unmarshal cached completion: %w", err)
	}
	return res, nil
}

// CompleteStream implements domain.LanguageModel.
func (m *Model) CompleteStream(
	ctx context.Context, req domain.CompletionRequest, fn domain.StreamFunc,
) (domain.CompletionResult, error) {
	if err := m.cache.Allow(ctx, domain.TenantFromContext(ctx), m.provider, "complete_stream"); err != nil {
		return domain.CompletionResult{}, err
	}
	return m.inner.CompleteStream(ctx, req, fn)
}
