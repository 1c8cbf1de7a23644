// Package refiner scores retrieved evidence per sub-question and detects
// contradictions within and across sub-questions. Conflicts are data for
// the integrator, never grounds for discarding evidence.
package refiner

import (
	"sort"
	"strings"

	"github.com/legalmind/lexrag/internal/domain/candidate"
	"github.com/legalmind/lexrag/internal/domain/evidence"
)

// Quality score component weights. They sum to 1.0 so chunk quality stays
// in [0,1].
const (
	weightBackendScore = 0.40
	weightSourcePrior  = 0.25
	weightLength       = 0.15
	weightRefDensity   = 0.20
)

// shortChunkLen is the length below which the length-confidence term
// penalizes a chunk.
const shortChunkLen = 120

// sourcePriors rank document types by evidentiary weight.
var sourcePriors = map[string]float64{
	"case_law":   1.0,
	"statute":    0.85,
	"commentary": 0.6,
}

const unclassifiedPrior = 0.4

// Config bounds the cross-node conflict scan.
type Config struct {
	// ConflictWindow is how many top-ranked chunks per node take part in
	// cross-node comparison.
	ConflictWindow int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{ConflictWindow: 3}
}

// Service refines evidence.
type Service struct {
	cfg   Config
	vocab Vocabulary
}

// New creates a refiner. Zero-value config fields fall back to defaults.
func New(cfg Config, vocab Vocabulary) *Service {
	if cfg.ConflictWindow <= 0 {
		cfg.ConflictWindow = DefaultConfig().ConflictWindow
	}
	if len(vocab.Negations) == 0 {
		vocab = DefaultVocabulary()
	}
	return &Service{cfg: cfg, vocab: vocab}
}

// Refine scores and sorts each node's chunks and detects conflicts.
// Intra-node detection checks all pairs within a node; cross-node
// detection compares only the top ConflictWindow chunks of each node pair
// to bound cost. Nodes touched by any conflict are flagged but keep all
// their evidence.
func (s *Service) Refine(byNode map[string][]candidate.Fused) (map[string]evidence.Set, []evidence.Conflict) {
	refined := make(map[string]evidence.Set, len(byNode))
	sigsByNode := make(map[string][]signals, len(byNode))

	for nodeID, chunks := range byNode {
		scored := make([]candidate.Fused, len(chunks))
		copy(scored, chunks)
		sort.SliceStable(scored, func(i, j int) bool {
			return s.chunkQuality(&scored[i]) > s.chunkQuality(&scored[j])
		})

		quality := 0.0
		sigs := make([]signals, len(scored))
		for i := range scored {
			quality += s.chunkQuality(&scored[i])
			sigs[i] = s.extractSignals(scored[i].Text())
		}
		if len(scored) > 0 {
			quality /= float64(len(scored))
		}

		refined[nodeID] = evidence.Set{NodeID: nodeID, Chunks: scored, Quality: quality}
		sigsByNode[nodeID] = sigs
	}

	conflicts := s.detectConflicts(refined, sigsByNode)

	for _, c := range conflicts {
		for _, id := range []string{c.NodeA, c.NodeB} {
			set := refined[id]
			set.HasConflicts = true
			refined[id] = set
		}
	}

	return refined, conflicts
}

// chunkQuality is the weighted sum of the normalized backend score, the
// source-type prior, length confidence, and domain-reference density.
func (s *Service) chunkQuality(c *candidate.Fused) float64 {
	score := clamp01(c.Score())

	rep := c.Candidate()
	prior, ok := sourcePriors[rep.Meta().DocType]
	if !ok {
		prior = unclassifiedPrior
	}

	length := 1.0
	if n := len(c.Text()); n < shortChunkLen {
		length = float64(n) / shortChunkLen
	}

	refs := referenceTokenRe.FindAllString(c.Text(), -1)
	words := len(strings.Fields(c.Text()))
	density := 0.0
	if words > 0 {
		density = clamp01(float64(len(refs)) * 20 / float64(words))
	}

	return weightBackendScore*score +
		weightSourcePrior*prior +
		weightLength*length +
		weightRefDensity*density
}

func (s *Service) detectConflicts(
	refined map[string]evidence.Set, sigsByNode map[string][]signals,
) []evidence.Conflict {
	var out []evidence.Conflict

	nodeIDs := make([]string, 0, len(refined))
	for id := range refined {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	// Intra-node: all chunk pairs within one sub-question.
	for _, id := range nodeIDs {
		sigs := sigsByNode[id]
		for i := 0; i < len(sigs); i++ {
			for j := i + 1; j < len(sigs); j++ {
				if found := conflictSignals(sigs[i], sigs[j]); len(found) > 0 {
					out = append(out, evidence.Conflict{
						Kind: evidence.IntraNode, NodeA: id, NodeB: id, Signals: found,
					})
				}
			}
		}
	}

	// Cross-node: only top-ranked chunks per node pair.
	for i := 0; i < len(nodeIDs); i++ {
		for j := i + 1; j < len(nodeIDs); j++ {
			a := topSignals(sigsByNode[nodeIDs[i]], s.cfg.ConflictWindow)
			b := topSignals(sigsByNode[nodeIDs[j]], s.cfg.ConflictWindow)
			for _, sa := range a {
				for _, sb := range b {
					if found := conflictSignals(sa, sb); len(found) > 0 {
						out = append(out, evidence.Conflict{
							Kind: evidence.CrossNode, NodeA: nodeIDs[i], NodeB: nodeIDs[j], Signals: found,
						})
					}
				}
			}
		}
	}

	return out
}

func topSignals(sigs []signals, n int) []signals {
	if len(sigs) > n {
		return sigs[:n]
	}
	return sigs
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
