package answer

import (
	"strings"

	"github.com/legalmind/lexrag/internal/domain/evidence"
	"github.com/legalmind/lexrag/internal/domain/mindmap"
)

// SubAnswer is the answer produced for one leaf of the decomposition tree.
type SubAnswer struct {
	NodeID     string   `json:"node_id"`
	Question   string   `json:"question"`
	Text       string   `json:"text"`
	Citations  []string `json:"citations,omitempty"`
	GatePassed bool     `json:"gate_passed"`
}

// Abstain explains why no definitive answer was given.
type Abstain struct {
	Reason         string   `json:"reason"`
	Issues         []string `json:"issues,omitempty"`
	PartialAnswers int      `json:"partial_answers"`
}

// Integrated is the final result of the cognitive pipeline. Exactly one of
// Answered/Abstain applies; Degraded marks best-effort partial results
// returned after a deadline hit.
type Integrated struct {
	Text           string                  `json:"text,omitempty"`
	Answered       bool                    `json:"answered"`
	Citations      []string                `json:"citations,omitempty"`
	Abstain        *Abstain                `json:"abstain,omitempty"`
	Conflicts      []evidence.Conflict     `json:"conflicts,omitempty"`
	Evidence       map[string]evidence.Set `json:"evidence,omitempty"`
	Trace          *mindmap.Map            `json:"trace,omitempty"`
	Degraded       bool                    `json:"degraded,omitempty"`
	DegradedReason string                  `json:"degraded_reason,omitempty"`
}

// DedupCitations merges citation lists case-insensitively, preserving the
// original casing of the first occurrence and overall first-seen order.
func DedupCitations(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, c := range list {
			key := strings.ToLower(strings.TrimSpace(c))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
