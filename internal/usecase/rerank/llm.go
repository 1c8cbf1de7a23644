package rerank

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/domain/candidate"
)

// snippetLen truncates long candidate texts in the ranking prompt.
const snippetLen = 200

// LLMProvider is a cross-encoder-style reranker driven by a completion
// model: the model orders candidate indices by relevance.
type LLMProvider struct {
	model domain.LanguageModel
	name  string
}

var _ Provider = (*LLMProvider)(nil)

// NewLLMProvider creates an LLM-backed rerank provider.
func NewLLMProvider(model domain.LanguageModel, name string) *LLMProvider {
	return &LLMProvider{model: model, name: name}
}

// Name implements Provider.
func (p *LLMProvider) Name() string { return p.name }

const rerankPromptFmt = `You are a search relevance optimization system.
Query: %s

Documents:
%s
Rank the documents above by relevance to the query.
Output ONLY the document indices in order of relevance, separated by commas.
Example: 0, 2, 1
Do not output any other text.`

// Rerank implements Provider. Returned candidates carry rank-derived
// scores (1/(rank+1)) so downstream gating sees a normalized 0-1 range.
func (p *LLMProvider) Rerank(ctx context.Context, query string, cands []candidate.Fused) ([]candidate.Fused, error) {
	if len(cands) <= 1 {
		return cands, nil
	}

	var docs strings.Builder
	for i, c := range cands {
		text := c.Text()
		if len(text) > snippetLen {
			text = text[:snippetLen] + "..."
		}
		fmt.Fprintf(&docs, "[%d] %s\n", i, text)
	}

	res, err := p.model.Complete(ctx, domain.CompletionRequest{
		Prompt:    fmt.Sprintf(rerankPromptFmt, query, docs.String()),
		MaxTokens: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("rerank call: %w", err)
	}

	order := parseIndices(res.Text, len(cands))
	if len(order) == 0 {
		return nil, fmt.Errorf("rerank order %q: %w", res.Text, domain.ErrModelOutputMalformed)
	}

	out := make([]candidate.Fused, 0, len(cands))
	seen := make(map[int]struct{}, len(order))
	for rank, idx := range order {
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, cands[idx].WithScore(1.0/float64(rank+1)))
	}
	// Indices the model dropped keep their relative order at the tail.
	for i, c := range cands {
		if _, ok := seen[i]; !ok {
			out = append(out, c.WithScore(1.0/float64(len(out)+1)))
		}
	}
	return out, nil
}

var indexRe = regexp.MustCompile(`\d+`)

// parseIndices extracts in-range candidate indices from the model output.
func parseIndices(s string, n int) []int {
	var out []int
	for _, m := range indexRe.FindAllString(s, -1) {
		if i, err := strconv.Atoi(m); err == nil && i >= 0 && i < n {
			out = append(out, i)
		}
	}
	return out
}
