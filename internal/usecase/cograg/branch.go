package cograg

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/domain/answer"
	"github.com/legalmind/lexrag/internal/domain/candidate"
	"github.com/legalmind/lexrag/internal/domain/mindmap"
	"github.com/legalmind/lexrag/internal/retrieval"
	"github.com/legalmind/lexrag/internal/usecase/fusion"
	"github.com/legalmind/lexrag/internal/usecase/gate"
)

// penaltyFactor downweights chunks matching a human-flagged bad reference.
const penaltyFactor = 0.5

// branchResult is the outcome of processing one leaf.
type branchResult struct {
	node      *mindmap.Node
	evidence  []candidate.Fused
	decision  gate.Decision
	subAnswer *answer.SubAnswer
	warnings  []string
}

// processBranch runs fusion, rerank, gate, and per-node answering for one
// leaf question.
func (s *Service) processBranch(
	ctx context.Context, node *mindmap.Node, req AskRequest,
	weights fusion.Weights, penalized []string,
) branchResult {
	out := s.fuser.Fuse(ctx, retrieval.Request{
		Query:  node.Question,
		Scope:  req.Scope,
		CaseID: req.CaseID,
		TopK:   s.cfg.TopK,
	}, weights)

	results := applyPenalties(out.Results, penalized)
	results = s.reranker.Rerank(ctx, node.Question, results)

	res := branchResult{node: node, evidence: results, warnings: out.Warnings}
	if len(results) == 0 {
		res.decision = gate.EvaluateEmpty()
		return res
	}
	res.decision = gate.Evaluate(results, s.cfg.MinBest, s.cfg.MinAvgTop3)

	text, err := s.answerNode(ctx, node.Question, results)
	if err != nil {
		res.warnings = append(res.warnings, fmt.Sprintf("node %s: %v", node.ID, err))
		return res
	}

	res.subAnswer = &answer.SubAnswer{
		NodeID:     node.ID,
		Question:   node.Question,
		Text:       text,
		Citations:  citationsFrom(results, s.cfg.EvidencePerNode),
		GatePassed: res.decision.Pass,
	}
	return res
}

const nodeAnswerPromptFmt = `Answer the legal question below using only the
evidence excerpts provided. If the evidence does not support an answer, say
so explicitly. Cite the excerpt numbers you rely on.

Question: %s

Evidence:
%s

Answer in the language of the question.`

func (s *Service) answerNode(ctx context.Context, question string, results []candidate.Fused) (string, error) {
	if s.model == nil {
		return "", fmt.Errorf("no language model configured: %w", domain.ErrModelUnavailable)
	}

	res, err := s.model.Complete(ctx, domain.CompletionRequest{
		Prompt:    fmt.Sprintf(nodeAnswerPromptFmt, question, formatEvidence(results, s.cfg.EvidencePerNode)),
		MaxTokens: 700,
	})
	if err != nil {
		return "", fmt.Errorf("node answer: %w", err)
	}
	text := strings.TrimSpace(res.Text)
	if text == "" {
		return "", fmt.Errorf("empty node answer: %w", domain.ErrModelOutputMalformed)
	}
	return text, nil
}

// applyPenalties halves the score of any chunk matching a flagged bad
// reference, then restores score order. Penalized evidence stays visible;
// it just stops winning ties.
func applyPenalties(results []candidate.Fused, penalized []string) []candidate.Fused {
	if len(penalized) == 0 {
		return results
	}

	out := make([]candidate.Fused, len(results))
	for i, r := range results {
		out[i] = r
		rep := r.Candidate()
		hay := strings.ToLower(r.Text() + " " + rep.Meta().Title)
		for _, ref := range penalized {
			if ref != "" && strings.Contains(hay, strings.ToLower(ref)) {
				out[i] = r.WithScore(r.Score() * penaltyFactor)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score() > out[j].Score() })
	return out
}

func formatEvidence(results []candidate.Fused, limit int) string {
	var b strings.Builder
	for i, r := range results {
		if i >= limit {
			break
		}
		rep := r.Candidate()
		title := rep.Meta().Title
		if title == "" {
			title = r.ID()
		}
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, title, r.Text())
	}
	return strings.TrimRight(b.String(), "\n")
}

// citationsFrom collects the titles (or ids) of the chunks shown to the
// model for one node.
func citationsFrom(results []candidate.Fused, limit int) []string {
	var out []string
	for i, r := range results {
		if i >= limit {
			break
		}
		rep := r.Candidate()
		if title := rep.Meta().Title; title != "" {
			out = append(out, title)
		} else {
			out = append(out, r.ID())
		}
	}
	return answer.DedupCitations(out)
}
