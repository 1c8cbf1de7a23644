// Package cograg is the full cognitive path: consult memory, decompose the
// query into a mind-map of sub-questions, process every leaf concurrently
// under a bounded pool, refine the evidence, and integrate a final answer.
// The whole request runs under a deadline; hitting it mid-flight cancels
// branch work cooperatively and returns the best partial result, flagged
// degraded, never an error-only response.
package cograg

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/domain/answer"
	"github.com/legalmind/lexrag/internal/domain/candidate"
	"github.com/legalmind/lexrag/internal/domain/consultation"
	"github.com/legalmind/lexrag/internal/domain/mindmap"
	"github.com/legalmind/lexrag/internal/domain/query"
	"github.com/legalmind/lexrag/internal/logger"
	"github.com/legalmind/lexrag/internal/usecase/fusion"
	"github.com/legalmind/lexrag/internal/usecase/gate"
	"github.com/legalmind/lexrag/internal/usecase/integrator"
	"github.com/legalmind/lexrag/internal/usecase/pipeline"
)

// Config tunes the full path.
type Config struct {
	MaxBranches     int
	TopK            int
	EvidencePerNode int
	MinBest         float64
	MinAvgTop3      float64
	GraphWeight     float64
	Budget          time.Duration
	AllowLLM        bool
	ReuseMemory     bool
	AbstainOnGap    bool
	IncludeGraph    bool
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxBranches:     4,
		TopK:            10,
		EvidencePerNode: 5,
		MinBest:         gate.DefaultMinBest,
		MinAvgTop3:      gate.DefaultMinAvgTop3,
		GraphWeight:     pipeline.DefaultGraphWeight,
		Budget:          90 * time.Second,
		AllowLLM:        true,
		ReuseMemory:     true,
		AbstainOnGap:    true,
		IncludeGraph:    true,
	}
}

// AskRequest is one full-path query.
type AskRequest struct {
	Query    string
	TenantID string
	Scope    string
	CaseID   string

	// Stream, when set, receives the final answer text incrementally.
	Stream domain.StreamFunc
}

// Service orchestrates the cognitive pipeline.
type Service struct {
	classifier Classifier
	fuser      Fuser
	reranker   Reranker
	planner    Planner
	refiner    Refiner
	integrator Integrator
	memory     Memory
	model      LanguageModel
	cfg        Config
}

// New wires the full path. memory may be nil to disable recall and storage.
func New(
	classifier Classifier, fuser Fuser, reranker Reranker,
	planner Planner, refiner Refiner, intg Integrator,
	memory Memory, model LanguageModel, cfg Config,
) *Service {
	def := DefaultConfig()
	if cfg.MaxBranches <= 0 {
		cfg.MaxBranches = def.MaxBranches
	}
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.EvidencePerNode <= 0 {
		cfg.EvidencePerNode = def.EvidencePerNode
	}
	if cfg.MinBest <= 0 {
		cfg.MinBest = def.MinBest
	}
	if cfg.MinAvgTop3 <= 0 {
		cfg.MinAvgTop3 = def.MinAvgTop3
	}
	if cfg.GraphWeight <= 0 {
		cfg.GraphWeight = def.GraphWeight
	}
	if cfg.Budget <= 0 {
		cfg.Budget = def.Budget
	}
	return &Service{
		classifier: classifier,
		fuser:      fuser,
		reranker:   reranker,
		planner:    planner,
		refiner:    refiner,
		integrator: intg,
		memory:     memory,
		model:      model,
		cfg:        cfg,
	}
}

// Ask runs the full cognitive pipeline and always returns a structured
// answer: normal, abstain, or degraded partial.
func (s *Service) Ask(ctx context.Context, req AskRequest) (answer.Integrated, error) {
	q, err := query.New(req.Query, req.TenantID, req.Scope, req.CaseID)
	if err != nil {
		return answer.Integrated{}, fmt.Errorf("invalid query: %w", err)
	}

	ctx = domain.ContextWithTenant(ctx, req.TenantID)
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Budget)
		defer cancel()
	}

	log := logger.FromContext(ctx)

	// Memory recall. A clean hit short-circuits the pipeline; a hit with
	// corrections only contributes its penalty list.
	var penalized []string
	if s.cfg.ReuseMemory && s.memory != nil {
		if sim := s.memory.FindSimilar(ctx, req.TenantID, req.Query); sim != nil {
			if len(sim.PenalizedRefs) == 0 && sim.Record.FinalAnswer != "" {
				log.Info("Reusing stored consultation",
					zap.String("record", sim.Record.ID),
					zap.Float64("similarity", sim.Similarity))
				if req.Stream != nil {
					_ = req.Stream(sim.Record.FinalAnswer)
				}
				return answer.Integrated{
					Text:     sim.Record.FinalAnswer,
					Answered: true,
					Trace:    sim.Record.Tree,
				}, nil
			}
			penalized = sim.PenalizedRefs
		}
	}

	cls := s.classifier.Classify(ctx, q, s.cfg.AllowLLM)
	weights := fusion.Weights{
		candidate.BackendLexical: cls.Weights.Sparse,
		candidate.BackendVector:  cls.Weights.Dense,
	}
	if s.cfg.IncludeGraph {
		weights[candidate.BackendGraph] = s.cfg.GraphWeight
	}

	tree := s.planner.Plan(ctx, req.Query)
	leaves := tree.Leaves()

	results, timedOut := s.processLeaves(ctx, leaves, req, weights, penalized)

	byNode := make(map[string][]candidate.Fused, len(results))
	var subAnswers []answer.SubAnswer
	var issues []string
	passed := 0

	// results follow leaf walk order, so downstream output is
	// deterministic for a given tree.
	for _, br := range results {
		if br == nil {
			continue
		}
		if len(br.evidence) > 0 {
			byNode[br.node.ID] = br.evidence
		}
		if !br.decision.Pass {
			issues = append(issues, fmt.Sprintf("sub-question %q: %s", br.node.Question, br.decision.Reason))
		}
		if br.subAnswer != nil {
			subAnswers = append(subAnswers, *br.subAnswer)
			if br.subAnswer.GatePassed {
				passed++
			}
		}
	}

	refined, conflicts := s.refiner.Refine(byNode)

	integrated := s.integrator.Integrate(ctx, integrator.Input{
		Query:                 req.Query,
		SubAnswers:            subAnswers,
		GatePassed:            passed > 0,
		Issues:                issues,
		Conflicts:             conflicts,
		AbstainOnInsufficient: s.cfg.AbstainOnGap,
		Stream:                req.Stream,
	})
	integrated.Trace = tree
	integrated.Evidence = refined

	if timedOut {
		integrated.Degraded = true
		integrated.DegradedReason = "request deadline exceeded, partial branches only"
	}

	s.remember(ctx, req, tree, subAnswers, integrated)
	return integrated, nil
}

// processLeaves fans out branch processing under the bounded pool. The
// returned flag reports a deadline hit: remaining branches are skipped and
// whatever finished is kept.
func (s *Service) processLeaves(
	ctx context.Context, leaves []*mindmap.Node, req AskRequest,
	weights fusion.Weights, penalized []string,
) ([]*branchResult, bool) {
	results := make([]*branchResult, len(leaves))

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.MaxBranches)

	var mu sync.Mutex
	timedOut := false

	for i, leaf := range leaves {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					mu.Lock()
					timedOut = true
					mu.Unlock()
				}
				return nil
			}
			bctx := logger.With(ctx, zap.String("node", leaf.ID))
			br := s.processBranch(bctx, leaf, req, weights, penalized)
			results[i] = &br
			return nil
		})
	}
	_ = g.Wait()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		timedOut = true
	}
	return results, timedOut
}

// remember stores the finished consultation. Failures are logged only;
// memory is best-effort.
func (s *Service) remember(
	ctx context.Context, req AskRequest, tree *mindmap.Map,
	subAnswers []answer.SubAnswer, integrated answer.Integrated,
) {
	if s.memory == nil || !integrated.Answered {
		return
	}

	nodeAnswers := make(map[string]string, len(subAnswers))
	for _, sa := range subAnswers {
		nodeAnswers[sa.NodeID] = sa.Text
	}

	// Storage must not inherit a nearly-spent request deadline.
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if _, err := s.memory.Store(sctx, consultation.Record{
		TenantID:    req.TenantID,
		Query:       req.Query,
		Tree:        tree,
		NodeAnswers: nodeAnswers,
		FinalAnswer: integrated.Text,
	}); err != nil {
		logger.FromContext(ctx).Warn("Failed to store consultation", zap.Error(err))
	}
}
