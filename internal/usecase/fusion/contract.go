package fusion

import (
	"github.com/legalmind/lexrag/internal/domain/candidate"
	"github.com/legalmind/lexrag/internal/retrieval"
)

// Adapter re-exports the retrieval adapter contract consumed by fusion.
type Adapter = retrieval.Adapter

// Weights maps each backend to its fusion weight. The sparse/dense pair
// from classification lands on lexical and vector; graph gets a fixed
// enrichment weight when enabled.
type Weights map[candidate.Backend]float64
