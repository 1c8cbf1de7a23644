// Package graph adapts a Neo4j-compatible graph store to the retrieval
// Adapter contract. Callers only see typed operations; no query language
// leaks out of this package.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/legalmind/lexrag/internal/domain/candidate"
	"github.com/legalmind/lexrag/internal/retrieval"
)

// Driver wraps a Neo4j/Memgraph connection.
type Driver struct {
	driver neo4j.DriverWithContext
}

// NewDriver connects and verifies connectivity.
func NewDriver(ctx context.Context, uri, username, password string) (*Driver, error) {
	d, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create graph driver: %w", err)
	}
	if err := d.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify graph connectivity: %w", err)
	}
	return &Driver{driver: d}, nil
}

// Close releases the underlying connection pool.
func (d *Driver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

// Ping reports whether the graph store is reachable.
func (d *Driver) Ping(ctx context.Context) error {
	return d.driver.VerifyConnectivity(ctx)
}

func (d *Driver) run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return nil, fmt.Errorf("graph query: %w", err)
	}
	return result, nil
}

// relatedChunksQuery walks citation edges from provisions whose reference
// matches the query terms and returns the chunks attached to them.
const relatedChunksQuery = `
CALL db.index.fulltext.queryNodes('provision_refs', $terms) YIELD node, score
MATCH (node)-[:CITED_BY|INTERPRETS*1..2]-(c:Chunk)
WHERE $scope = '' OR c.scope = $scope
RETURN DISTINCT c.id AS id, c.text AS text, c.doc_type AS doc_type,
       c.title AS title, c.page AS page, score
ORDER BY score DESC
LIMIT $top_k`

// RelatedChunks is the typed graph operation behind retrieval: chunks
// connected to provisions matching the query terms.
func (d *Driver) RelatedChunks(ctx context.Context, terms, scope string, topK int) ([]candidate.Candidate, error) {
	result, err := d.run(ctx, relatedChunksQuery, map[string]any{
		"terms": terms,
		"scope": scope,
		"top_k": topK,
	})
	if err != nil {
		return nil, err
	}

	out := make([]candidate.Candidate, 0, len(result.Records))
	for _, rec := range result.Records {
		id, _ := rec.Get("id")
		text, _ := rec.Get("text")
		score, _ := rec.Get("score")
		docType, _ := rec.Get("doc_type")
		title, _ := rec.Get("title")
		page, _ := rec.Get("page")

		meta := candidate.Metadata{
			DocType: asString(docType),
			Title:   asString(title),
			Page:    int(asFloat(page)),
		}
		out = append(out, candidate.New(
			candidate.BackendGraph, asString(id), asString(text), asFloat(score), meta,
		))
	}
	return out, nil
}

// Adapter exposes the graph driver as a retrieval backend.
type Adapter struct {
	driver *Driver
}

var _ retrieval.Adapter = (*Adapter)(nil)

// New creates a graph adapter.
func New(driver *Driver) *Adapter {
	return &Adapter{driver: driver}
}

// Name implements retrieval.Adapter.
func (a *Adapter) Name() candidate.Backend { return candidate.BackendGraph }

// Search implements retrieval.Adapter.
func (a *Adapter) Search(ctx context.Context, req retrieval.Request) ([]candidate.Candidate, error) {
	cands, err := a.driver.RelatedChunks(ctx, req.Query, req.Scope, req.TopK)
	if err != nil {
		return nil, fmt.Errorf("graph search: %w", err)
	}
	return cands, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}
