// Package lexrag embeds the retrieval and reasoning engine in-process: the
// same services the HTTP server wires, behind a small client facade.
package lexrag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/legalmind/lexrag/internal/db"
	dbRedis "github.com/legalmind/lexrag/internal/db/redis"
	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/domain/answer"
	"github.com/legalmind/lexrag/internal/metrics"
	"github.com/legalmind/lexrag/internal/repository/classcache"
	consultationrepo "github.com/legalmind/lexrag/internal/repository/consultation"
	"github.com/legalmind/lexrag/internal/repository/embcache"
	graphret "github.com/legalmind/lexrag/internal/retrieval/graph"
	"github.com/legalmind/lexrag/internal/retrieval/lexical"
	vectorret "github.com/legalmind/lexrag/internal/retrieval/vector"
	anthropicLLM "github.com/legalmind/lexrag/internal/transport/anthropic"
	openaiLLM "github.com/legalmind/lexrag/internal/transport/openai"
	"github.com/legalmind/lexrag/internal/usecase/classify"
	"github.com/legalmind/lexrag/internal/usecase/cograg"
	"github.com/legalmind/lexrag/internal/usecase/fusion"
	"github.com/legalmind/lexrag/internal/usecase/integrator"
	"github.com/legalmind/lexrag/internal/usecase/memory"
	"github.com/legalmind/lexrag/internal/usecase/pipeline"
	"github.com/legalmind/lexrag/internal/usecase/planner"
	"github.com/legalmind/lexrag/internal/usecase/refiner"
	"github.com/legalmind/lexrag/internal/usecase/rerank"
)

const defaultReadinessTimeout = 10 * time.Second

// SearchRequest is the simple-path query.
type SearchRequest = pipeline.SearchRequest

// RankedResults is the simple-path outcome.
type RankedResults = pipeline.RankedResults

// AskRequest is the full-path query.
type AskRequest = cograg.AskRequest

// IntegratedAnswer is the full-path outcome.
type IntegratedAnswer = answer.Integrated

// Client is the lexrag SDK entry point.
type Client struct {
	store       db.Store
	graphDriver *graphret.Driver
	pipeline    *pipeline.Service
	cograg      *cograg.Service
	memory      *memory.Service
}

// New creates a Client and connects to the configured stores.
func New(opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("lexrag: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("lexrag: create store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("lexrag: database not ready: %w", err)
	}

	return wireClient(ctx, store, cfg)
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig) (*Client, error) {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	metrics.RegisterEngineMetrics()

	var embedder domain.Embedder
	if cfg.embedder != nil {
		embedder = &embedderAdapter{inner: cfg.embedder}
	} else if cfg.openaiAPIKey != "" {
		base := openaiLLM.NewEmbedder(&openaiLLM.EmbedderConfig{
			APIKey:     cfg.openaiAPIKey,
			BaseURL:    cfg.openaiBaseURL,
			Model:      cfg.embeddingModel,
			Dimensions: cfg.embeddingDims,
			Provider:   "openai",
			Logger:     logger,
		})
		embedder = embcache.New(base, store, logger)
	}

	var model domain.LanguageModel
	if cfg.model != nil {
		model = &modelAdapter{inner: cfg.model}
	} else {
		var models []domain.LanguageModel
		if cfg.openaiAPIKey != "" {
			models = append(models, domain.NewTimeoutModel(openaiLLM.NewLLM(&openaiLLM.LLMConfig{
				APIKey:   cfg.openaiAPIKey,
				BaseURL:  cfg.openaiBaseURL,
				Model:    cfg.openaiModel,
				Provider: "openai",
				Logger:   logger,
			}), cfg.llmTimeout))
		}
		if cfg.anthropicAPIKey != "" {
			models = append(models, domain.NewTimeoutModel(anthropicLLM.New(&anthropicLLM.Config{
				APIKey: cfg.anthropicAPIKey,
				Model:  cfg.anthropicModel,
				Logger: logger,
			}), cfg.llmTimeout))
		}
		if len(models) > 0 {
			model = domain.NewFallbackModel(models...)
		}
	}

	adapters := []fusion.Adapter{lexical.New(store, cfg.chunkIndex)}
	if embedder != nil {
		adapters = append(adapters, vectorret.New(store, embedder, cfg.chunkIndex))
	}

	var graphDriver *graphret.Driver
	if cfg.graphURI != "" {
		var err error
		graphDriver, err = graphret.NewDriver(ctx, cfg.graphURI, cfg.graphUsername, cfg.graphPassword)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("lexrag: connect graph store: %w", err)
		}
		adapters = append(adapters, graphret.New(graphDriver))
	}

	classifySvc := classify.New(model, classcache.New(store, time.Hour, logger))
	fusionSvc := fusion.New(adapters, cfg.adapterTimeout, cfg.rrfK)

	var rerankSvc *rerank.Service
	if model != nil {
		rerankSvc = rerank.New(rerank.NewLLMProvider(model, "llm"))
	} else {
		rerankSvc = rerank.New()
	}

	plannerSvc := planner.New(model, planner.DefaultConfig())
	refinerSvc := refiner.New(refiner.DefaultConfig(), refiner.DefaultVocabulary())
	integratorSvc := integrator.New(model)
	memorySvc := memory.New(consultationrepo.New(store, logger), cfg.memoryThreshold)

	pipeCfg := pipeline.DefaultConfig()
	pipeCfg.AllowLLM = model != nil

	cogCfg := cograg.DefaultConfig()
	cogCfg.AllowLLM = model != nil
	cogCfg.IncludeGraph = graphDriver != nil

	return &Client{
		store:       store,
		graphDriver: graphDriver,
		pipeline:    pipeline.New(classifySvc, fusionSvc, rerankSvc, pipeCfg),
		cograg: cograg.New(
			classifySvc, fusionSvc, rerankSvc, plannerSvc, refinerSvc,
			integratorSvc, memorySvc, model, cogCfg,
		),
		memory: memorySvc,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.graphDriver != nil {
		_ = c.graphDriver.Close(context.Background())
	}
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search runs the simple retrieval path.
func (c *Client) Search(ctx context.Context, req SearchRequest) (RankedResults, error) {
	return c.pipeline.Search(ctx, req)
}

// Ask runs the full cognitive path.
func (c *Client) Ask(ctx context.Context, req AskRequest) (IntegratedAnswer, error) {
	return c.cograg.Ask(ctx, req)
}

// ApplyCorrection flags bad references on a stored consultation.
func (c *Client) ApplyCorrection(ctx context.Context, tenantID, recordID string, badRefs []string, note string) error {
	return c.memory.ApplyCorrection(ctx, tenantID, recordID, badRefs, note)
}

// embedderAdapter wraps the public Embedder to satisfy domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	vec, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{Embedding: vec}, nil
}

// modelAdapter wraps the public LanguageModel to satisfy
// domain.LanguageModel. Streaming degrades to one final chunk.
type modelAdapter struct {
	inner LanguageModel
}

func (a *modelAdapter) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	text, err := a.inner.Complete(ctx, req.Prompt, req.MaxTokens)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("complete: %w", err)
	}
	return domain.CompletionResult{Text: text}, nil
}

func (a *modelAdapter) CompleteStream(
	ctx context.Context, req domain.CompletionRequest, fn domain.StreamFunc,
) (domain.CompletionResult, error) {
	res, err := a.Complete(ctx, req)
	if err != nil {
		return domain.CompletionResult{}, err
	}
	if fn != nil {
		if err := fn(res.Text); err != nil {
			return domain.CompletionResult{}, err
		}
	}
	return res, nil
}
