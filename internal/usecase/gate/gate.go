// Package gate implements the corrective quality check (CRAG): it decides
// whether retrieved evidence is strong enough to answer, or whether the
// caller should retry with wider scope or consider abstaining.
package gate

import (
	"fmt"

	"github.com/legalmind/lexrag/internal/domain/candidate"
	"github.com/legalmind/lexrag/internal/metrics"
)

// Default thresholds, calibrated for RRF+rerank score ranges.
const (
	DefaultMinBest    = 0.35
	DefaultMinAvgTop3 = 0.25
)

// Decision is a gate outcome. Computed fresh per fusion call; never
// persisted.
type Decision struct {
	Pass    bool
	Best    float64
	AvgTop3 float64
	Reason  string
}

// Evaluate is a pure function of (results, minBest, minAvgTop3): identical
// inputs always yield identical decisions. Empty input passes trivially;
// there is nothing to correct.
func Evaluate(results []candidate.Fused, minBest, minAvgTop3 float64) Decision {
	if len(results) == 0 {
		return record(Decision{
			Pass:   true,
			Reason: "no results to evaluate, nothing to correct",
		})
	}

	best := 0.0
	sum := 0.0
	n := 0
	for i, r := range results {
		if r.Score() > best {
			best = r.Score()
		}
		if i < 3 {
			sum += r.Score()
			n++
		}
	}
	avgTop3 := sum / float64(n)

	d := Decision{Best: best, AvgTop3: avgTop3}
	switch {
	case best < minBest:
		d.Reason = fmt.Sprintf("best score %.3f below threshold %.3f", best, minBest)
	case avgTop3 < minAvgTop3:
		d.Reason = fmt.Sprintf("avg top-3 score %.3f below threshold %.3f", avgTop3, minAvgTop3)
	default:
		d.Pass = true
		d.Reason = "evidence quality sufficient"
	}
	return record(d)
}

// EvaluateEmpty describes the gate outcome for a branch that retrieved
// nothing at all, with a reason citing the zero-result condition.
func EvaluateEmpty() Decision {
	return record(Decision{
		Pass:   false,
		Reason: "zero results from all retrieval backends",
	})
}

func record(d Decision) Decision {
	if d.Pass {
		metrics.GateDecisionsTotal.WithLabelValues("pass").Inc()
	} else {
		metrics.GateDecisionsTotal.WithLabelValues("fail").Inc()
	}
	return d
}
