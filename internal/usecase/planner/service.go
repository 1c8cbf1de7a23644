// Package planner decides whether a query is complex and, if so, builds
// the mind-map tree of sub-questions by bounded breadth-first expansion.
// Levels expand sequentially; siblings within one level expand
// concurrently under a parallelism cap.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/domain/mindmap"
	"github.com/legalmind/lexrag/internal/logger"
	"github.com/legalmind/lexrag/internal/metrics"
)

// Config bounds the decomposition.
type Config struct {
	MaxDepth    int
	MaxChildren int
	MaxParallel int
	Heuristic   Heuristic
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxDepth:    3,
		MaxChildren: 3,
		MaxParallel: 4,
		Heuristic:   DefaultHeuristic(),
	}
}

// Service builds decomposition trees.
type Service struct {
	model domain.LanguageModel
	cfg   Config
}

// New creates a planner. A nil model disables decomposition: every query
// plans as simple.
func New(model domain.LanguageModel, cfg Config) *Service {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 3
	}
	if cfg.MaxChildren < 2 {
		cfg.MaxChildren = 2
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 4
	}
	return &Service{model: model, cfg: cfg}
}

// Plan returns the sub-question tree for the query. Simple queries give a
// one-node tree. Any model failure degrades to the simple plan; Plan never
// fails. After planning no node is left in CONTINUE state without children.
func (s *Service) Plan(ctx context.Context, query string) *mindmap.Map {
	log := logger.FromContext(ctx)

	if s.model == nil || !s.cfg.Heuristic.IsComplex(query) {
		return mindmap.New(query, mindmap.StateEnd)
	}

	conditions, err := s.extractConditions(ctx, query)
	if err != nil {
		log.Warn("Context extraction failed, treating query as simple", zap.Error(err))
		return mindmap.New(query, mindmap.StateEnd)
	}

	tree := mindmap.New(query, mindmap.StateContinue)

	for level := 0; level < s.cfg.MaxDepth-1; level++ {
		parents := continueNodesAt(tree, level)
		if len(parents) == 0 {
			break
		}
		s.expandLevel(ctx, tree, parents, conditions, level)
	}

	// Never leave an unresolved node behind.
	tree.Seal()

	metrics.PlannerTreeSize.Observe(float64(tree.Size()))
	return tree
}

// expandLevel expands all CONTINUE parents of one level. Sibling expansion
// calls run concurrently under the parallelism cap; children are attached
// serially afterwards so the arena itself needs no lock.
func (s *Service) expandLevel(
	ctx context.Context, tree *mindmap.Map, parents []*mindmap.Node, conditions string, level int,
) {
	log := logger.FromContext(ctx)

	type expansion struct {
		parentID  string
		questions []string
	}

	var mu sync.Mutex
	expansions := make([]expansion, 0, len(parents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxParallel)

	known := tree.Questions()
	for _, parent := range parents {
		g.Go(func() error {
			questions, err := s.decompose(gctx, parent.Question, conditions, known)
			if err != nil {
				log.Warn("Sub-question expansion failed, closing branch",
					zap.String("node", parent.ID), zap.Error(err))
				return nil // parent becomes END via Seal
			}
			mu.Lock()
			expansions = append(expansions, expansion{parentID: parent.ID, questions: questions})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	childState := mindmap.StateContinue
	if level+1 >= s.cfg.MaxDepth-1 {
		childState = mindmap.StateEnd
	}

	seen := make(map[string]struct{}, len(known))
	for _, q := range known {
		seen[normalizeQuestion(q)] = struct{}{}
	}

	for _, e := range expansions {
		for _, q := range e.questions {
			key := normalizeQuestion(q)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if _, err := tree.AddChild(e.parentID, q, childState); err != nil {
				log.Warn("Failed to attach sub-question", zap.Error(err))
			}
		}
	}
}

const extractPromptFmt = `Read the legal question below and state, in one short
paragraph, the contextual conditions and themes it involves (jurisdiction,
legal areas, constraints). Answer with the paragraph only.

Question: %s`

func (s *Service) extractConditions(ctx context.Context, query string) (string, error) {
	res, err := s.model.Complete(ctx, domain.CompletionRequest{
		Prompt:    fmt.Sprintf(extractPromptFmt, query),
		MaxTokens: 200,
	})
	if err != nil {
		return "", fmt.Errorf("extract conditions: %w", err)
	}
	return strings.TrimSpace(res.Text), nil
}

const decomposePromptFmt = `Decompose the legal question into %d to %d
self-contained sub-questions that together answer it. Context: %s

Do not repeat any of these already-asked questions:
%s

Question: %s

Answer with a JSON array of strings, nothing else. If the question needs no
decomposition, answer with an empty array: []`

// decompose asks for 2..MaxChildren sub-questions, non-duplicative of
// everything already in the tree. An empty list is a valid answer: the
// parent is then a leaf.
func (s *Service) decompose(ctx context.Context, question, conditions string, known []string) ([]string, error) {
	res, err := s.model.Complete(ctx, domain.CompletionRequest{
		Prompt: fmt.Sprintf(decomposePromptFmt,
			2, s.cfg.MaxChildren, conditions, "- "+strings.Join(known, "\n- "), question),
		MaxTokens: 400,
	})
	if err != nil {
		return nil, fmt.Errorf("decompose call: %w", err)
	}

	questions, err := parseQuestions(res.Text)
	if err != nil {
		return nil, err
	}
	if len(questions) > s.cfg.MaxChildren {
		questions = questions[:s.cfg.MaxChildren]
	}
	return questions, nil
}

var jsonArrayRe = regexp.MustCompile(`\[[\s\S]*\]`)

// parseQuestions reads a JSON string array out of the model output,
// tolerating surrounding prose and markdown fences.
func parseQuestions(text string) ([]string, error) {
	raw := jsonArrayRe.FindString(text)
	if raw == "" {
		return nil, fmt.Errorf("no JSON array in output: %w", domain.ErrModelOutputMalformed)
	}

	var questions []string
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil, fmt.Errorf("parse sub-questions: %w: %w", domain.ErrModelOutputMalformed, err)
	}

	out := questions[:0]
	for _, q := range questions {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out, nil
}

func continueNodesAt(tree *mindmap.Map, level int) []*mindmap.Node {
	var out []*mindmap.Node
	for _, n := range tree.AtLevel(level) {
		if n.State == mindmap.StateContinue {
			out = append(out, n)
		}
	}
	return out
}

func normalizeQuestion(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimRight(q, " ?.!"))), " ")
}
