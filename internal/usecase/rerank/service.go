// Package rerank re-scores fused candidates through an ordered provider
// chain with a passthrough fallback, then applies a bounded additive boost
// for domain-specific citation patterns.
package rerank

import (
	"context"
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/legalmind/lexrag/internal/domain/candidate"
	"github.com/legalmind/lexrag/internal/logger"
)

// maxDomainBoost bounds the additive boost so it can never invert a
// clearly superior base score.
const maxDomainBoost = 0.1

// domainPatterns are curated statute/citation-like token patterns that
// earn a boost. Each hit adds an equal share of the cap.
var domainPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bart(igo)?s?\.?\s*\d+`),
	regexp.MustCompile(`(?i)\bs[úu]mula\s+\d+`),
	regexp.MustCompile(`(?i)\b(lei|decreto)\s*n?[º°.]?\s*[\d.]+`),
	regexp.MustCompile(`(?i)§\s*\d+`),
	regexp.MustCompile(`\b\d{7}-\d{2}\.\d{4}\.\d\.\d{2}\.\d{4}\b`),
}

// Service is the reranker with a provider fallback chain.
type Service struct {
	chain []Provider
}

// New creates a reranker. chain is tried in order; an empty chain means
// passthrough.
func New(chain ...Provider) *Service {
	return &Service{chain: chain}
}

// Rerank tries each provider in order, falling back on error. When every
// provider fails (or none is configured), candidates pass through
// unchanged. The domain boost applies in every case.
func (s *Service) Rerank(ctx context.Context, query string, cands []candidate.Fused) []candidate.Fused {
	if query == "" || len(cands) == 0 {
		return cands
	}

	log := logger.FromContext(ctx)

	reranked := cands
	for _, p := range s.chain {
		out, err := p.Rerank(ctx, query, cands)
		if err != nil {
			log.Warn("Reranker provider failed, trying next",
				zap.String("provider", p.Name()), zap.Error(err))
			continue
		}
		reranked = out
		break
	}

	return applyDomainBoost(reranked)
}

// applyDomainBoost adds up to maxDomainBoost per candidate based on how
// many domain patterns its text matches, then restores score order.
func applyDomainBoost(cands []candidate.Fused) []candidate.Fused {
	share := maxDomainBoost / float64(len(domainPatterns))

	out := make([]candidate.Fused, len(cands))
	for i, c := range cands {
		boost := 0.0
		for _, re := range domainPatterns {
			if re.MatchString(c.Text()) {
				boost += share
			}
		}
		out[i] = c.WithScore(c.Score() + boost)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score() > out[j].Score() })
	return out
}
