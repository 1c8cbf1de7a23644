package pipeline

import (
	"context"

	"github.com/legalmind/lexrag/internal/domain/candidate"
	"github.com/legalmind/lexrag/internal/domain/query"
	"github.com/legalmind/lexrag/internal/retrieval"
	"github.com/legalmind/lexrag/internal/usecase/classify"
	"github.com/legalmind/lexrag/internal/usecase/fusion"
)

// Classifier maps a query to a category and backend weights.
type Classifier interface {
	Classify(ctx context.Context, q query.Query, allowLLM bool) classify.Result
}

// Fuser runs hybrid retrieval and RRF fusion.
type Fuser interface {
	Fuse(ctx context.Context, req retrieval.Request, weights fusion.Weights) fusion.Output
}

// Reranker re-scores fused candidates.
type Reranker interface {
	Rerank(ctx context.Context, query string, cands []candidate.Fused) []candidate.Fused
}
