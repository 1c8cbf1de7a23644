package integrator

import (
	"context"

	"github.com/legalmind/lexrag/internal/domain"
)

// LanguageModel is the completion capability the integrator consumes.
type LanguageModel interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
	CompleteStream(ctx context.Context, req domain.CompletionRequest, fn domain.StreamFunc) (domain.CompletionResult, error)
}
