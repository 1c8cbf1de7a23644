// Package lexical adapts the RediSearch BM25 index to the retrieval
// Adapter contract (the sparse backend).
package lexical

import (
	"context"
	"fmt"
	"strconv"

	"github.com/legalmind/lexrag/internal/db"
	"github.com/legalmind/lexrag/internal/domain/candidate"
	"github.com/legalmind/lexrag/internal/retrieval"
)

// searcher is the consumer interface for BM25 search (ISP).
type searcher interface {
	SearchText(ctx context.Context, index, query, scope string, topK int) ([]db.Doc, error)
}

// Adapter runs BM25 keyword search against the document index.
type Adapter struct {
	store searcher
	index string
}

var _ retrieval.Adapter = (*Adapter)(nil)

// New creates a lexical adapter over the given FT index.
func New(store searcher, index string) *Adapter {
	return &Adapter{store: store, index: index}
}

// Name implements retrieval.Adapter.
func (a *Adapter) Name() candidate.Backend { return candidate.BackendLexical }

// Search implements retrieval.Adapter.
func (a *Adapter) Search(ctx context.Context, req retrieval.Request) ([]candidate.Candidate, error) {
	docs, err := a.store.SearchText(ctx, a.index, req.Query, req.Scope, req.TopK)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return FromDocs(candidate.BackendLexical, docs), nil
}

// FromDocs converts store documents into candidates, reading the shared
// document field layout (text, doc_type, title, page).
func FromDocs(backend candidate.Backend, docs []db.Doc) []candidate.Candidate {
	out := make([]candidate.Candidate, 0, len(docs))
	for _, d := range docs {
		meta := candidate.Metadata{
			DocType: d.Fields["doc_type"],
			Title:   d.Fields["title"],
		}
		if p, err := strconv.Atoi(d.Fields["page"]); err == nil {
			meta.Page = p
		}
		out = append(out, candidate.New(backend, d.ID, d.Fields["text"], d.Score, meta))
	}
	return out
}
