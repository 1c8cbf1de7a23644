// Package vector adapts the RediSearch KNN index plus an embedder to the
// retrieval Adapter contract (the dense backend).
package vector

import (
	"context"
	"fmt"

	"github.com/legalmind/lexrag/internal/db"
	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/domain/candidate"
	"github.com/legalmind/lexrag/internal/retrieval"
	"github.com/legalmind/lexrag/internal/retrieval/lexical"
)

// searcher is the consumer interface for KNN search (ISP).
type searcher interface {
	SearchKNN(ctx context.Context, index string, vector []float32, scope string, topK int) ([]db.Doc, error)
}

// Adapter embeds the query and runs KNN search against the document index.
type Adapter struct {
	store searcher
	embed domain.Embedder
	index string
}

var _ retrieval.Adapter = (*Adapter)(nil)

// New creates a vector adapter over the given FT index.
func New(store searcher, embed domain.Embedder, index string) *Adapter {
	return &Adapter{store: store, embed: embed, index: index}
}

// Name implements retrieval.Adapter.
func (a *Adapter) Name() candidate.Backend { return candidate.BackendVector }

// Search implements retrieval.Adapter. An embedding failure fails this
// adapter only; fusion treats it as a soft failure and keeps the other
// backends.
func (a *Adapter) Search(ctx context.Context, req retrieval.Request) ([]candidate.Candidate, error) {
	emb, err := a.embed.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w: %w", domain.ErrEmbeddingProviderError, err)
	}

	docs, err := a.store.SearchKNN(ctx, a.index, emb.Embedding, req.Scope, req.TopK)
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}
	return lexical.FromDocs(candidate.BackendVector, docs), nil
}
