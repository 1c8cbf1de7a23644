package cograg

import (
	"context"

	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/domain/answer"
	"github.com/legalmind/lexrag/internal/domain/candidate"
	"github.com/legalmind/lexrag/internal/domain/consultation"
	"github.com/legalmind/lexrag/internal/domain/evidence"
	"github.com/legalmind/lexrag/internal/domain/mindmap"
	"github.com/legalmind/lexrag/internal/domain/query"
	"github.com/legalmind/lexrag/internal/retrieval"
	"github.com/legalmind/lexrag/internal/usecase/classify"
	"github.com/legalmind/lexrag/internal/usecase/fusion"
	"github.com/legalmind/lexrag/internal/usecase/integrator"
)

// Classifier supplies backend weights for the root query.
type Classifier interface {
	Classify(ctx context.Context, q query.Query, allowLLM bool) classify.Result
}

// Fuser runs hybrid retrieval for one sub-question.
type Fuser interface {
	Fuse(ctx context.Context, req retrieval.Request, weights fusion.Weights) fusion.Output
}

// Reranker re-scores fused candidates.
type Reranker interface {
	Rerank(ctx context.Context, query string, cands []candidate.Fused) []candidate.Fused
}

// Planner builds the sub-question tree.
type Planner interface {
	Plan(ctx context.Context, query string) *mindmap.Map
}

// Refiner scores evidence and detects conflicts.
type Refiner interface {
	Refine(byNode map[string][]candidate.Fused) (map[string]evidence.Set, []evidence.Conflict)
}

// Integrator produces the final answer or abstain.
type Integrator interface {
	Integrate(ctx context.Context, in integrator.Input) answer.Integrated
}

// Memory recalls and stores consultations.
type Memory interface {
	FindSimilar(ctx context.Context, tenantID, query string) *consultation.Similar
	Store(ctx context.Context, rec consultation.Record) (string, error)
}

// LanguageModel answers individual sub-questions from evidence.
type LanguageModel interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}
