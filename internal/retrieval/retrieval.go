// Package retrieval defines the capability contracts for the heterogeneous
// retrieval backends and the adapters that implement them. The engine depends
// on these interfaces only; backend internals stay external.
package retrieval

import (
	"context"

	"github.com/legalmind/lexrag/internal/domain/candidate"
)

// Request carries the per-call retrieval parameters.
type Request struct {
	Query  string
	Scope  string
	CaseID string
	TopK   int
}

// Adapter is a thin capability wrapper around one retrieval backend.
// Implementations fail with an error; they never panic and never block past
// the context deadline.
type Adapter interface {
	// Name returns the backend tag used in fusion weighting and logging.
	Name() candidate.Backend
	// Search returns ranked candidates for the query, best first.
	Search(ctx context.Context, req Request) ([]candidate.Candidate, error)
}
