// Package integrator synthesizes the final answer from per-node sub-answers,
// or produces an abstain explanation when the evidence was judged
// insufficient. Every path degrades to a deterministic rule-based text when
// the model is unavailable; Integrate never fails.
package integrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/domain/answer"
	"github.com/legalmind/lexrag/internal/domain/evidence"
	"github.com/legalmind/lexrag/internal/logger"
)

// NothingFoundText is the fixed reply when no sub-answer exists and the
// gate did not force an abstain.
const NothingFoundText = "Nenhuma informação relevante foi encontrada nas fontes consultadas para responder a esta consulta."

// Input carries everything Integrate needs for one query.
type Input struct {
	Query      string
	SubAnswers []answer.SubAnswer
	GatePassed bool
	Issues     []string
	Conflicts  []evidence.Conflict

	// AbstainOnInsufficient selects between an explained abstain (model
	// call with templated fallback) and a silent one (no model call).
	AbstainOnInsufficient bool

	// Stream, when set, receives the final answer text incrementally on
	// model-backed paths and as a single chunk on fallback paths.
	Stream domain.StreamFunc
}

// Service integrates sub-answers.
type Service struct {
	model LanguageModel
}

// New creates an integrator. A nil model forces the rule-based fallbacks.
func New(model LanguageModel) *Service {
	return &Service{model: model}
}

// Integrate runs the three-path state machine: abstain with explanation,
// silent abstain, or normal synthesis.
func (s *Service) Integrate(ctx context.Context, in Input) answer.Integrated {
	citations := collectCitations(in.SubAnswers)

	if !in.GatePassed {
		meta := &answer.Abstain{
			Reason:         "evidence below quality thresholds",
			Issues:         in.Issues,
			PartialAnswers: len(in.SubAnswers),
		}
		if !in.AbstainOnInsufficient {
			return answer.Integrated{Abstain: meta, Conflicts: in.Conflicts}
		}
		text := s.explainAbstain(ctx, in)
		s.emit(ctx, in.Stream, text)
		return answer.Integrated{
			Text:      text,
			Abstain:   meta,
			Citations: citations,
			Conflicts: in.Conflicts,
		}
	}

	switch len(in.SubAnswers) {
	case 0:
		s.emit(ctx, in.Stream, NothingFoundText)
		return answer.Integrated{Text: NothingFoundText, Answered: true, Conflicts: in.Conflicts}
	case 1:
		s.emit(ctx, in.Stream, in.SubAnswers[0].Text)
		return answer.Integrated{
			Text:      in.SubAnswers[0].Text,
			Answered:  true,
			Citations: citations,
			Conflicts: in.Conflicts,
		}
	default:
		text := s.synthesize(ctx, in)
		return answer.Integrated{
			Text:      text,
			Answered:  true,
			Citations: citations,
			Conflicts: in.Conflicts,
		}
	}
}

const synthesisPromptFmt = `You are a legal research assistant. Combine the
partial answers below into one coherent answer to the main question. Use only
the information present in the partial answers; do not add outside knowledge.
When the partial answers disagree, present both positions explicitly instead
of choosing one.%s

Main question: %s

Partial answers:
%s

Answer in the language of the main question.`

// synthesize merges N sub-answers through the model, streaming when a
// callback is set. On any model failure it falls back to deterministic
// concatenation in tree order.
func (s *Service) synthesize(ctx context.Context, in Input) string {
	if s.model != nil {
		conflictNote := ""
		if len(in.Conflicts) > 0 {
			conflictNote = "\nNote: contradiction between sources was detected; acknowledge it in the answer."
		}
		req := domain.CompletionRequest{
			Prompt: fmt.Sprintf(synthesisPromptFmt,
				conflictNote, in.Query, formatSubAnswers(in.SubAnswers)),
			MaxTokens: 1200,
		}

		var (
			res domain.CompletionResult
			err error
		)
		if in.Stream != nil {
			res, err = s.model.CompleteStream(ctx, req, in.Stream)
		} else {
			res, err = s.model.Complete(ctx, req)
		}
		if err == nil && strings.TrimSpace(res.Text) != "" {
			return strings.TrimSpace(res.Text)
		}
		logger.FromContext(ctx).Warn("Answer synthesis failed, using concatenation fallback", zap.Error(err))
	}

	text := concatenate(in.SubAnswers)
	s.emit(ctx, in.Stream, text)
	return text
}

const abstainPromptFmt = `You are a legal research assistant. The system could
not gather sufficient evidence to answer the question below definitively.
Write a short explanation for the user stating that no definitive answer can
be given, referencing the specific problems listed, and summarizing whatever
partial findings exist.

Question: %s

Problems:
%s

Partial findings:
%s

Answer in the language of the question.`

func (s *Service) explainAbstain(ctx context.Context, in Input) string {
	if s.model != nil {
		res, err := s.model.Complete(ctx, domain.CompletionRequest{
			Prompt: fmt.Sprintf(abstainPromptFmt,
				in.Query, formatIssues(in.Issues), formatSubAnswers(in.SubAnswers)),
			MaxTokens: 600,
		})
		if err == nil && strings.TrimSpace(res.Text) != "" {
			return strings.TrimSpace(res.Text)
		}
		logger.FromContext(ctx).Warn("Abstain explanation failed, using template", zap.Error(err))
	}
	return templatedAbstain(in)
}

// templatedAbstain is the fixed fallback explanation.
func templatedAbstain(in Input) string {
	var b strings.Builder
	b.WriteString("Não foi possível formular uma resposta definitiva para esta consulta: ")
	b.WriteString("as evidências recuperadas não atingiram os critérios mínimos de qualidade.")
	if len(in.Issues) > 0 {
		b.WriteString("\n\nProblemas identificados:\n")
		b.WriteString(formatIssues(in.Issues))
	}
	if len(in.SubAnswers) > 0 {
		b.WriteString(fmt.Sprintf("\n\nForam obtidas %d resposta(s) parcial(is), listadas abaixo para referência:\n", len(in.SubAnswers)))
		b.WriteString(concatenate(in.SubAnswers))
	}
	return b.String()
}

// concatenate joins sub-answers deterministically in their given order,
// which follows the decomposition tree.
func concatenate(subs []answer.SubAnswer) string {
	parts := make([]string, 0, len(subs))
	for _, sa := range subs {
		parts = append(parts, fmt.Sprintf("%s\n%s", sa.Question, sa.Text))
	}
	return strings.Join(parts, "\n\n")
}

func formatSubAnswers(subs []answer.SubAnswer) string {
	if len(subs) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for i, sa := range subs {
		fmt.Fprintf(&b, "%d. Q: %s\n   A: %s\n", i+1, sa.Question, sa.Text)
	}
	return b.String()
}

func formatIssues(issues []string) string {
	if len(issues) == 0 {
		return "- insufficient evidence"
	}
	return "- " + strings.Join(issues, "\n- ")
}

func collectCitations(subs []answer.SubAnswer) []string {
	lists := make([][]string, 0, len(subs))
	for _, sa := range subs {
		lists = append(lists, sa.Citations)
	}
	return answer.DedupCitations(lists...)
}

func (s *Service) emit(ctx context.Context, fn domain.StreamFunc, text string) {
	if fn == nil {
		return
	}
	if err := fn(text); err != nil {
		logger.FromContext(ctx).Warn("Stream delivery failed", zap.Error(err))
	}
}
