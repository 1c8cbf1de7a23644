package classify

import (
	"context"

	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/domain/category"
)

// Cache stores (tenant, query) → category pairs.
type Cache interface {
	Get(ctx context.Context, tenantID, query string) (category.Category, bool)
	Put(ctx context.Context, tenantID, query string, cat category.Category)
}

// LanguageModel is the completion capability used for LLM-assisted
// classification.
type LanguageModel interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}
