package evidence

import "github.com/legalmind/lexrag/internal/domain/candidate"

// Set is the refined evidence for one tree node. Built once by the refiner;
// the integrator never mutates it.
type Set struct {
	NodeID       string
	Chunks       []candidate.Fused
	Quality      float64
	HasConflicts bool
}

// ConflictKind distinguishes conflicts within one sub-question from
// conflicts across sub-questions.
type ConflictKind string

const (
	// IntraNode is a conflict between chunks of the same sub-question.
	IntraNode ConflictKind = "intra_node"
	// CrossNode is a conflict between chunks of different sub-questions.
	CrossNode ConflictKind = "cross_node"
)

// Conflict records a detected contradiction. Informational only: it never
// blocks synthesis and never discards evidence.
type Conflict struct {
	Kind    ConflictKind `json:"kind"`
	NodeA   string       `json:"node_a"`
	NodeB   string       `json:"node_b"`
	Signals []string     `json:"signals"`
}
