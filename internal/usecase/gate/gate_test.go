package gate

import (
	"fmt"
	"testing"

	"github.com/legalmind/lexrag/internal/domain/candidate"
)

func fusedWithScore(id string, score float64) candidate.Fused {
	c := candidate.New(candidate.BackendLexical, id, "content-"+id, score, candidate.Metadata{})
	return candidate.NewFused(c, score, []candidate.Backend{candidate.BackendLexical}, candidate.DedupKey("content-"+id))
}

func fusedList(scores ...float64) []candidate.Fused {
	out := make([]candidate.Fused, 0, len(scores))
	for i, s := range scores {
		out = append(out, fusedWithScore(fmt.Sprintf("doc-%d", i), s))
	}
	return out
}

func TestEvaluate_Pass(t *testing.T) {
	d := Evaluate(fusedList(0.8, 0.5, 0.4), DefaultMinBest, DefaultMinAvgTop3)
	if !d.Pass {
		t.Fatalf("expected pass, got fail: %s", d.Reason)
	}
	if d.Best != 0.8 {
		t.Errorf("best: got %f, want 0.8", d.Best)
	}
}

func TestEvaluate_BestBelowThreshold(t *testing.T) {
	d := Evaluate(fusedList(0.2, 0.1), DefaultMinBest, DefaultMinAvgTop3)
	if d.Pass {
		t.Fatal("expected fail when best score is below threshold")
	}
	if d.Reason == "" {
		t.Error("failing decision must carry a reason")
	}
}

func TestEvaluate_AvgTop3BelowThreshold(t *testing.T) {
	// Best passes (0.4 > 0.35) but the top-3 average (0.4+0.1+0.1)/3 = 0.2
	// falls under 0.25.
	d := Evaluate(fusedList(0.4, 0.1, 0.1), DefaultMinBest, DefaultMinAvgTop3)
	if d.Pass {
		t.Fatal("expected fail when avg top-3 is below threshold")
	}
}

func TestEvaluate_AvgUsesAtMostThreeResults(t *testing.T) {
	// Trailing low scores beyond the top 3 must not drag the average down.
	d := Evaluate(fusedList(0.9, 0.9, 0.9, 0.01, 0.01), DefaultMinBest, DefaultMinAvgTop3)
	if !d.Pass {
		t.Fatalf("expected pass, got fail: %s", d.Reason)
	}
	if d.AvgTop3 != 0.9 {
		t.Errorf("avg top-3: got %f, want 0.9", d.AvgTop3)
	}
}

func TestEvaluate_EmptyInputPasses(t *testing.T) {
	d := Evaluate(nil, DefaultMinBest, DefaultMinAvgTop3)
	if !d.Pass {
		t.Error("empty input has nothing to correct and should pass")
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	results := fusedList(0.6, 0.3, 0.2)
	a := Evaluate(results, DefaultMinBest, DefaultMinAvgTop3)
	b := Evaluate(results, DefaultMinBest, DefaultMinAvgTop3)
	if a != b {
		t.Errorf("identical inputs must yield identical decisions: %+v vs %+v", a, b)
	}
}

func TestEvaluateEmpty_FailsWithZeroResultReason(t *testing.T) {
	d := EvaluateEmpty()
	if d.Pass {
		t.Fatal("zero-result branch must fail the gate")
	}
	if d.Reason != "zero results from all retrieval backends" {
		t.Errorf("unexpected reason: %q", d.Reason)
	}
}
