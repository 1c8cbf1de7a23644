package candidate

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Backend identifies the retrieval backend a candidate came from.
type Backend string

// Known retrieval backends.
const (
	BackendLexical Backend = "lexical"
	BackendVector  Backend = "vector"
	BackendGraph   Backend = "graph"
)

// Metadata is the structured description of a retrieved chunk.
type Metadata struct {
	DocType string
	Title   string
	Page    int
}

// Candidate is a single retrieved chunk, owned by the adapter that produced it.
type Candidate struct {
	backend Backend
	id      string
	text    string
	score   float64
	meta    Metadata
}

// New creates a retrieval candidate.
func New(backend Backend, id, text string, score float64, meta Metadata) Candidate {
	return Candidate{backend: backend, id: id, text: text, score: score, meta: meta}
}

// Backend returns the source backend tag.
func (c *Candidate) Backend() Backend { return c.backend }

// ID returns the opaque document/chunk identifier.
func (c *Candidate) ID() string { return c.id }

// Text returns the chunk text.
func (c *Candidate) Text() string { return c.text }

// Score returns the backend-native relevance score.
func (c *Candidate) Score() float64 { return c.score }

// Meta returns the structured metadata.
func (c *Candidate) Meta() Metadata { return c.meta }

// dedupWindow is the normalized text prefix hashed into the dedup key.
// Long chunks from different backends share a key when their leading
// window matches.
const dedupWindow = 240

// DedupKey returns a stable content-hash key for deduplication across
// backends. Normalization: lowercase, collapsed whitespace, leading window.
func DedupKey(text string) string {
	norm := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if len(norm) > dedupWindow {
		norm = norm[:dedupWindow]
	}
	h := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(h[:])
}
