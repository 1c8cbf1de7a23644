package fusion

import (
	"sort"

	"github.com/legalmind/lexrag/internal/domain/candidate"
)

// DefaultRRFK is the Reciprocal Rank Fusion constant (standard value from
// Cormack et al. 2009).
const DefaultRRFK = 60

// ranking is one backend's ordered result list with its fusion weight.
type ranking struct {
	backend    candidate.Backend
	weight     float64
	candidates []candidate.Candidate
}

// fuseRRF merges per-backend rankings via weighted Reciprocal Rank Fusion.
// score(d) = sum over rankings of weight_b × 1/(k + rank). A candidate found
// by several backends sums its contributions, rewarding cross-backend
// agreement. Candidates are merged by content-hash dedup key; the merged
// entry keeps the highest-native-score backend's text and metadata.
func fuseRRF(rankings []ranking, rrfK int, topK int) []candidate.Fused {
	type scored struct {
		rep      candidate.Candidate
		score    float64
		backends []candidate.Backend
	}

	// Concurrent fan-in collects rankings in completion order; fix the order
	// so representative selection on native-score ties stays deterministic.
	sort.Slice(rankings, func(i, j int) bool { return rankings[i].backend < rankings[j].backend })

	merged := make(map[string]*scored)

	for _, r := range rankings {
		for rank, c := range r.candidates {
			contribution := r.weight / float64(rrfK+rank+1)
			key := candidate.DedupKey(c.Text())

			existing, ok := merged[key]
			if !ok {
				merged[key] = &scored{
					rep:      c,
					score:    contribution,
					backends: []candidate.Backend{r.backend},
				}
				continue
			}

			existing.score += contribution
			existing.backends = appendBackend(existing.backends, r.backend)
			// Representative text/metadata follows the strongest native score.
			if c.Score() > existing.rep.Score() {
				existing.rep = c
			}
		}
	}

	results := make([]candidate.Fused, 0, len(merged))
	for key, s := range merged {
		results = append(results, candidate.NewFused(s.rep, s.score, s.backends, key))
	}

	// Deterministic order: score descending, ties broken by candidate id.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score() != results[j].Score() {
			return results[i].Score() > results[j].Score()
		}
		return results[i].ID() < results[j].ID()
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results
}

func appendBackend(list []candidate.Backend, b candidate.Backend) []candidate.Backend {
	for _, v := range list {
		if v == b {
			return list
		}
	}
	return append(list, b)
}
