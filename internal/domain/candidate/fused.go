package candidate

// Fused is a candidate merged across backends with a combined RRF score.
// Within one fusion call the dedup key is unique.
type Fused struct {
	rep      Candidate
	combined float64
	backends []Backend
	dedupKey string
}

// NewFused creates a fused result. rep is the representative candidate
// (highest-scoring backend's text and metadata).
func NewFused(rep Candidate, combined float64, backends []Backend, dedupKey string) Fused {
	return Fused{rep: rep, combined: combined, backends: backends, dedupKey: dedupKey}
}

// Candidate returns the representative candidate.
func (f *Fused) Candidate() Candidate { return f.rep }

// ID returns the representative candidate id.
func (f *Fused) ID() string { return f.rep.ID() }

// Text returns the representative chunk text.
func (f *Fused) Text() string { return f.rep.Text() }

// Score returns the combined fusion score.
func (f *Fused) Score() float64 { return f.combined }

// Backends returns the backends that contributed to this result.
func (f *Fused) Backends() []Backend { return f.backends }

// DedupKey returns the stable content-hash key.
func (f *Fused) DedupKey() string { return f.dedupKey }

// WithScore returns a copy with an updated score. Used by the reranker so
// fusion output stays immutable.
func (f Fused) WithScore(score float64) Fused {
	f.combined = score
	return f
}
