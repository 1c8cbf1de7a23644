package consultation

import (
	"time"

	"github.com/legalmind/lexrag/internal/domain/mindmap"
)

// Correction is a human reviewer flagging bad references on a stored
// consultation. Corrections are append-only.
type Correction struct {
	BadRefs   []string  `json:"bad_refs"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is one stored consultation: the full decomposition plus answers.
// Records are append-only and scoped by tenant.
type Record struct {
	ID          string            `json:"id"`
	TenantID    string            `json:"tenant_id"`
	Query       string            `json:"query"`
	Keywords    []string          `json:"keywords"`
	Tree        *mindmap.Map      `json:"tree,omitempty"`
	NodeAnswers map[string]string `json:"node_answers,omitempty"`
	FinalAnswer string            `json:"final_answer,omitempty"`
	Corrections []Correction      `json:"corrections,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// PenalizedRefs collects every reference flagged bad across all corrections.
// Recall applies these as a downweight/exclusion penalty.
func (r *Record) PenalizedRefs() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, c := range r.Corrections {
		for _, ref := range c.BadRefs {
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			out = append(out, ref)
		}
	}
	return out
}

// Similar is a recalled consultation with its similarity score.
type Similar struct {
	Record        Record
	Similarity    float64
	PenalizedRefs []string
}
