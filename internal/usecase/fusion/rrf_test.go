package fusion

import (
	"math"
	"testing"

	"github.com/legalmind/lexrag/internal/domain/candidate"
)

func makeCand(backend candidate.Backend, id, text string, score float64) candidate.Candidate {
	return candidate.New(backend, id, text, score, candidate.Metadata{})
}

func TestFuseRRF_ScoreFormula(t *testing.T) {
	rankings := []ranking{{
		backend:    candidate.BackendLexical,
		weight:     1.0,
		candidates: []candidate.Candidate{makeCand(candidate.BackendLexical, "a", "text a", 0.9)},
	}}

	results := fuseRRF(rankings, DefaultRRFK, 10)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	// Rank 0 with weight 1.0: 1/(60+1).
	expected := 1.0 / 61.0
	if math.Abs(results[0].Score()-expected) > 1e-10 {
		t.Errorf("score: got %f, want %f", results[0].Score(), expected)
	}
}

func TestFuseRRF_CrossBackendAgreementSums(t *testing.T) {
	rankings := []ranking{
		{
			backend:    candidate.BackendLexical,
			weight:     0.5,
			candidates: []candidate.Candidate{makeCand(candidate.BackendLexical, "a", "shared text", 0.9)},
		},
		{
			backend:    candidate.BackendVector,
			weight:     0.5,
			candidates: []candidate.Candidate{makeCand(candidate.BackendVector, "a-vec", "shared text", 0.8)},
		},
	}

	results := fuseRRF(rankings, DefaultRRFK, 10)
	if len(results) != 1 {
		t.Fatalf("identical texts should merge, got %d results", len(results))
	}
	expected := 0.5/61.0 + 0.5/61.0
	if math.Abs(results[0].Score()-expected) > 1e-10 {
		t.Errorf("summed score: got %f, want %f", results[0].Score(), expected)
	}
	if len(results[0].Backends()) != 2 {
		t.Errorf("merged result should carry both backends, got %v", results[0].Backends())
	}
}

func TestFuseRRF_RepresentativeFollowsNativeScore(t *testing.T) {
	// Same normalized content; vector's native score wins, so its id and
	// metadata represent the merged entry.
	rankings := []ranking{
		{
			backend:    candidate.BackendLexical,
			weight:     0.5,
			candidates: []candidate.Candidate{makeCand(candidate.BackendLexical, "lex-1", "Mesmo Texto", 0.4)},
		},
		{
			backend:    candidate.BackendVector,
			weight:     0.5,
			candidates: []candidate.Candidate{makeCand(candidate.BackendVector, "vec-1", "mesmo texto", 0.9)},
		},
	}

	results := fuseRRF(rankings, DefaultRRFK, 10)
	if len(results) != 1 {
		t.Fatalf("expected 1 merged result, got %d", len(results))
	}
	if results[0].ID() != "vec-1" {
		t.Errorf("representative: got %s, want vec-1", results[0].ID())
	}
}

func TestFuseRRF_WeightsScaleContribution(t *testing.T) {
	rankings := []ranking{
		{
			backend:    candidate.BackendLexical,
			weight:     0.85,
			candidates: []candidate.Candidate{makeCand(candidate.BackendLexical, "lex", "lexical only", 0.9)},
		},
		{
			backend:    candidate.BackendVector,
			weight:     0.15,
			candidates: []candidate.Candidate{makeCand(candidate.BackendVector, "vec", "vector only", 0.9)},
		},
	}

	results := fuseRRF(rankings, DefaultRRFK, 10)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID() != "lex" {
		t.Errorf("higher-weight backend should rank first, got %s", results[0].ID())
	}
}

func TestFuseRRF_TopKLimiting(t *testing.T) {
	cands := make([]candidate.Candidate, 0, 5)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		cands = append(cands, makeCand(candidate.BackendLexical, id, "text "+id, 0.5))
	}
	rankings := []ranking{{backend: candidate.BackendLexical, weight: 1.0, candidates: cands}}

	results := fuseRRF(rankings, DefaultRRFK, 3)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
}

func TestFuseRRF_DeterministicTieOrder(t *testing.T) {
	// Two backends at equal weight, each contributing one candidate at rank
	// 0: identical fused scores, so ordering falls back to the candidate id.
	build := func() []ranking {
		return []ranking{
			{
				backend:    candidate.BackendVector,
				weight:     0.5,
				candidates: []candidate.Candidate{makeCand(candidate.BackendVector, "zeta", "vector text", 0.9)},
			},
			{
				backend:    candidate.BackendLexical,
				weight:     0.5,
				candidates: []candidate.Candidate{makeCand(candidate.BackendLexical, "alpha", "lexical text", 0.9)},
			},
		}
	}

	for i := 0; i < 5; i++ {
		results := fuseRRF(build(), DefaultRRFK, 10)
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].ID() != "alpha" {
			t.Fatalf("tie must break by id: got %s first", results[0].ID())
		}
	}
}

func TestFuseRRF_Empty(t *testing.T) {
	results := fuseRRF(nil, DefaultRRFK, 10)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestFuseRRF_SortedByScoreDescending(t *testing.T) {
	rankings := []ranking{{
		backend: candidate.BackendLexical,
		weight:  1.0,
		candidates: []candidate.Candidate{
			makeCand(candidate.BackendLexical, "a", "first", 0.9),
			makeCand(candidate.BackendLexical, "b", "second", 0.8),
			makeCand(candidate.BackendLexical, "c", "third", 0.7),
		},
	}}

	results := fuseRRF(rankings, DefaultRRFK, 10)
	for i := 1; i < len(results); i++ {
		if results[i].Score() > results[i-1].Score() {
			t.Errorf("results not sorted at index %d: %f > %f",
				i, results[i].Score(), results[i-1].Score())
		}
	}
}
