// Package pipeline is the simple-query retrieval path: classify, fuse,
// rerank, gate. A failed gate triggers exactly one corrective retry with
// widened scope before the result is marked low-confidence.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/domain/candidate"
	"github.com/legalmind/lexrag/internal/domain/category"
	"github.com/legalmind/lexrag/internal/domain/query"
	"github.com/legalmind/lexrag/internal/logger"
	"github.com/legalmind/lexrag/internal/retrieval"
	"github.com/legalmind/lexrag/internal/usecase/fusion"
	"github.com/legalmind/lexrag/internal/usecase/gate"
)

// Defaults for the corrective retry and the graph backend contribution.
const (
	DefaultTopK        = 10
	DefaultGraphWeight = 0.25
	retryTopKFactor    = 2
)

// Config tunes the simple path.
type Config struct {
	MinBest     float64
	MinAvgTop3  float64
	GraphWeight float64
	AllowLLM    bool
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MinBest:     gate.DefaultMinBest,
		MinAvgTop3:  gate.DefaultMinAvgTop3,
		GraphWeight: DefaultGraphWeight,
		AllowLLM:    true,
	}
}

// SearchRequest is one simple-path query.
type SearchRequest struct {
	Query        string
	TenantID     string
	Scope        string
	CaseID       string
	TopK         int
	IncludeGraph bool
}

// RankedResults is the simple-path outcome. LowConfidence marks results
// that failed the gate even after the corrective retry.
type RankedResults struct {
	Results       []candidate.Fused
	Category      category.Category
	Gate          gate.Decision
	Warnings      []string
	Retried       bool
	LowConfidence bool
	UsedLLM       bool
}

// Service is the simple-path pipeline.
type Service struct {
	classifier Classifier
	fuser      Fuser
	reranker   Reranker
	cfg        Config
}

// New wires the simple path.
func New(classifier Classifier, fuser Fuser, reranker Reranker, cfg Config) *Service {
	if cfg.MinBest <= 0 {
		cfg.MinBest = gate.DefaultMinBest
	}
	if cfg.MinAvgTop3 <= 0 {
		cfg.MinAvgTop3 = gate.DefaultMinAvgTop3
	}
	if cfg.GraphWeight <= 0 {
		cfg.GraphWeight = DefaultGraphWeight
	}
	return &Service{classifier: classifier, fuser: fuser, reranker: reranker, cfg: cfg}
}

// Search runs classify, fuse, rerank, gate. On a gate fail it retries once
// with a widened top-k and a simplified query, then keeps the better round.
func (s *Service) Search(ctx context.Context, req SearchRequest) (RankedResults, error) {
	q, err := query.New(req.Query, req.TenantID, req.Scope, req.CaseID)
	if err != nil {
		return RankedResults{}, fmt.Errorf("invalid query: %w", err)
	}
	if req.TopK <= 0 {
		req.TopK = DefaultTopK
	}
	ctx = domain.ContextWithTenant(ctx, req.TenantID)

	cls := s.classifier.Classify(ctx, q, s.cfg.AllowLLM)
	weights := s.backendWeights(cls.Weights, req.IncludeGraph)

	out := s.retrieve(ctx, req.Query, req, weights)
	decision := s.evaluate(out.Results)

	res := RankedResults{
		Results:  out.Results,
		Category: cls.Category,
		Gate:     decision,
		Warnings: out.Warnings,
		UsedLLM:  cls.UsedLLM,
	}
	if decision.Pass {
		return res, nil
	}

	// One corrective round: wider net, fewer constraining terms.
	logger.FromContext(ctx).Info("Gate failed, retrying with widened scope",
		zap.String("reason", decision.Reason))

	wide := req
	wide.TopK = req.TopK * retryTopKFactor
	retryOut := s.retrieve(ctx, simplifyQuery(req.Query), wide, weights)
	retryDecision := s.evaluate(retryOut.Results)

	res.Retried = true
	if retryDecision.Pass || len(retryOut.Results) > len(res.Results) {
		res.Results = retryOut.Results
		res.Gate = retryDecision
		res.Warnings = append(res.Warnings, retryOut.Warnings...)
	}
	res.LowConfidence = !res.Gate.Pass
	return res, nil
}

func (s *Service) retrieve(ctx context.Context, text string, req SearchRequest, weights fusion.Weights) fusion.Output {
	out := s.fuser.Fuse(ctx, retrieval.Request{
		Query:  text,
		Scope:  req.Scope,
		CaseID: req.CaseID,
		TopK:   req.TopK,
	}, weights)
	out.Results = s.reranker.Rerank(ctx, text, out.Results)
	return out
}

func (s *Service) evaluate(results []candidate.Fused) gate.Decision {
	if len(results) == 0 {
		return gate.EvaluateEmpty()
	}
	return gate.Evaluate(results, s.cfg.MinBest, s.cfg.MinAvgTop3)
}

// backendWeights maps the classifier's sparse/dense pair onto concrete
// backends: lexical carries the sparse weight, vector the dense one, and
// the graph backend a fixed contribution when enrichment is on.
func (s *Service) backendWeights(w category.Weights, includeGraph bool) fusion.Weights {
	out := fusion.Weights{
		candidate.BackendLexical: w.Sparse,
		candidate.BackendVector:  w.Dense,
	}
	if includeGraph {
		out[candidate.BackendGraph] = s.cfg.GraphWeight
	}
	return out
}

// simplifyQuery strips short function words so the retry matches on the
// query's content terms only.
func simplifyQuery(text string) string {
	fields := strings.Fields(text)
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(strings.Trim(f, "?!.,;:"))) >= 4 {
			kept = append(kept, strings.Trim(f, "?!.,;:"))
		}
	}
	if len(kept) == 0 {
		return text
	}
	return strings.Join(kept, " ")
}
