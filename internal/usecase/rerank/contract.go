package rerank

import (
	"context"

	"github.com/legalmind/lexrag/internal/domain/candidate"
)

// Provider re-scores fused candidates against the query. Implementations
// return results in relevance order with updated scores.
type Provider interface {
	// Name identifies the provider for logging.
	Name() string
	Rerank(ctx context.Context, query string, cands []candidate.Fused) ([]candidate.Fused, error)
}
