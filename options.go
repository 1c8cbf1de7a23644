package lexrag

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/legalmind/lexrag/internal/usecase/fusion"
	"github.com/legalmind/lexrag/internal/usecase/memory"
)

// Embedder is the pluggable embedding capability.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// LanguageModel is the pluggable completion capability. Streaming is
// optional; non-streaming models are adapted by emitting the full text as
// one chunk.
type LanguageModel interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs    []string
	password string

	graphURI      string
	graphUsername string
	graphPassword string

	openaiAPIKey  string
	openaiBaseURL string
	openaiModel   string

	anthropicAPIKey string
	anthropicModel  string

	embeddingModel string
	embeddingDims  int

	// Custom capability overrides; take precedence over key-based wiring.
	model    LanguageModel
	embedder Embedder

	chunkIndex      string
	rrfK            int
	adapterTimeout  time.Duration
	llmTimeout      time.Duration
	memoryThreshold float64

	logger *zap.Logger
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		openaiModel:     "gpt-4o-mini",
		anthropicModel:  "claude-3-5-haiku-latest",
		embeddingModel:  "text-embedding-3-small",
		embeddingDims:   1536,
		chunkIndex:      "lexrag_chunks",
		rrfK:            fusion.DefaultRRFK,
		adapterTimeout:  5 * time.Second,
		llmTimeout:      30 * time.Second,
		memoryThreshold: memory.DefaultSimilarityThreshold,
	}
}

// WithRedis configures the key-value store connection.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithGraph enables graph-based retrieval enrichment.
func WithGraph(uri, username, password string) Option {
	return func(c *clientConfig) {
		c.graphURI = uri
		c.graphUsername = username
		c.graphPassword = password
	}
}

// WithOpenAI configures the primary completion and embedding provider.
func WithOpenAI(apiKey, model string) Option {
	return func(c *clientConfig) {
		c.openaiAPIKey = apiKey
		if model != "" {
			c.openaiModel = model
		}
	}
}

// WithOpenAIBaseURL points the OpenAI-compatible client at a different
// endpoint.
func WithOpenAIBaseURL(baseURL string) Option {
	return func(c *clientConfig) { c.openaiBaseURL = baseURL }
}

// WithAnthropic configures the fallback completion provider.
func WithAnthropic(apiKey, model string) Option {
	return func(c *clientConfig) {
		c.anthropicAPIKey = apiKey
		if model != "" {
			c.anthropicModel = model
		}
	}
}

// WithEmbeddingModel overrides the embedding model and dimensions.
func WithEmbeddingModel(model string, dimensions int) Option {
	return func(c *clientConfig) {
		c.embeddingModel = model
		c.embeddingDims = dimensions
	}
}

// WithLanguageModel plugs in a custom completion capability, bypassing the
// key-based provider wiring.
func WithLanguageModel(m LanguageModel) Option {
	return func(c *clientConfig) { c.model = m }
}

// WithEmbedder plugs in a custom embedding capability.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithChunkIndex overrides the RediSearch index name.
func WithChunkIndex(name string) Option {
	return func(c *clientConfig) { c.chunkIndex = name }
}

// WithRRFK overrides the RRF rank constant.
func WithRRFK(k int) Option {
	return func(c *clientConfig) { c.rrfK = k }
}

// WithAdapterTimeout overrides the per-backend retrieval timeout.
func WithAdapterTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.adapterTimeout = d }
}

// WithLLMTimeout overrides the per-provider completion timeout. A
// non-positive value disables the bound.
func WithLLMTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.llmTimeout = d }
}

// WithMemoryThreshold overrides the consultation recall similarity floor.
func WithMemoryThreshold(t float64) Option {
	return func(c *clientConfig) { c.memoryThreshold = t }
}

// WithLogger attaches a logger; the default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
