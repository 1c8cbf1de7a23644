// Package classify maps a query to a semantic category and a sparse/dense
// weight pair. Identifier-like queries take a pattern fast path that never
// calls the model; everything else may use LLM-assisted classification
// with a cached result and a neutral fallback.
package classify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/domain/category"
	"github.com/legalmind/lexrag/internal/domain/query"
	"github.com/legalmind/lexrag/internal/logger"
)

// Result is a classification outcome. Weights always sum to 1.0.
type Result struct {
	Category category.Category
	Weights  category.Weights
	UsedLLM  bool
}

// Service classifies queries.
type Service struct {
	model LanguageModel
	cache Cache
}

// New creates a classification service. model and cache may be nil; the
// service then works on patterns and the neutral fallback only.
func New(model LanguageModel, cache Cache) *Service {
	return &Service{model: model, cache: cache}
}

// Classify never fails: any model or cache trouble degrades to the neutral
// category with equal weights.
func (s *Service) Classify(ctx context.Context, q query.Query, allowLLM bool) Result {
	// Fast path: fixed high-precision identifier rules.
	if cat, ok := matchFastPath(q.Text()); ok {
		return Result{Category: cat, Weights: category.WeightsFor(cat)}
	}

	if !allowLLM || s.model == nil {
		return neutral()
	}

	if s.cache != nil {
		if cat, ok := s.cache.Get(ctx, q.TenantID(), q.Text()); ok {
			return Result{Category: cat, Weights: category.WeightsFor(cat), UsedLLM: true}
		}
	}

	cat, err := s.classifyLLM(ctx, q.Text())
	if err != nil {
		logger.FromContext(ctx).Warn("LLM classification failed, using neutral category",
			zap.Error(err))
		return neutral()
	}

	if s.cache != nil {
		s.cache.Put(ctx, q.TenantID(), q.Text(), cat)
	}
	return Result{Category: cat, Weights: category.WeightsFor(cat), UsedLLM: true}
}

const classifyPromptFmt = `Classify the legal query below into exactly one category.
Categories: %s
Answer with the category name only, nothing else.

Query: %s`

func (s *Service) classifyLLM(ctx context.Context, text string) (category.Category, error) {
	names := make([]string, 0, len(category.All()))
	for _, c := range category.All() {
		names = append(names, string(c))
	}

	res, err := s.model.Complete(ctx, domain.CompletionRequest{
		Prompt:    fmt.Sprintf(classifyPromptFmt, strings.Join(names, ", "), text),
		MaxTokens: 16,
	})
	if err != nil {
		return "", fmt.Errorf("classification call: %w", err)
	}

	cat := category.Category(strings.ToLower(strings.TrimSpace(res.Text)))
	if !cat.IsValid() {
		return "", fmt.Errorf("category %q: %w", res.Text, domain.ErrModelOutputMalformed)
	}
	return cat, nil
}

func neutral() Result {
	return Result{Category: category.General, Weights: category.WeightsFor(category.General)}
}
