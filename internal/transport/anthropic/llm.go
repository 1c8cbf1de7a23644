// Package anthropic provides the fallback completion provider.
package anthropic

import (
	"context"
	"fmt"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/metrics"
)

const defaultMaxTokens = 1024

// LLM is a completion provider backed by the Anthropic Messages API.
type LLM struct {
	client   *anthropic.Client
	model    string
	provider string
	logger   *zap.Logger
}

var _ domain.LanguageModel = (*LLM)(nil)

// Config holds the provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// New creates an Anthropic completion provider.
func New(cfg *Config) *LLM {
	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}
	return &LLM{
		client:   anthropic.NewClient(cfg.APIKey, opts...),
		model:    cfg.Model,
		provider: "anthropic",
		logger:   cfg.Logger,
	}
}

// Complete implements domain.LanguageModel.
func (l *LLM) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	start := time.Now()

	resp, err := l.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:       anthropic.Model(l.model),
		MaxTokens:   maxTokens,
		Temperature: &req.Temperature,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(req.Prompt),
				},
			},
		},
	})

	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(l.provider, l.model, "error").Inc()
		return domain.CompletionResult{}, fmt.Errorf("anthropic completion: %w: %w", domain.ErrModelUnavailable, err)
	}
	if len(resp.Content) == 0 || resp.Content[0].Text == nil {
		metrics.LLMRequestsTotal.WithLabelValues(l.provider, l.model, "error").Inc()
		return domain.CompletionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrModelUnavailable)
	}

	metrics.LLMRequestsTotal.WithLabelValues(l.provider, l.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(l.provider, l.model).Observe(duration.Seconds())
	if resp.Usage.OutputTokens > 0 {
		metrics.LLMTokensTotal.WithLabelValues(l.provider, l.model, "prompt").
			Add(float64(resp.Usage.InputTokens))
		metrics.LLMTokensTotal.WithLabelValues(l.provider, l.model, "total").
			Add(float64(resp.Usage.InputTokens + resp.Usage.OutputTokens))
	}

	return domain.CompletionResult{
		Text:         *resp.Content[0].Text,
		PromptTokens: resp.Usage.InputTokens,
		TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}

// CompleteStream implements domain.LanguageModel. The fallback provider
// serves internal calls only, so streaming delegates to the blocking form
// and emits the full text as one chunk.
func (l *LLM) CompleteStream(
	ctx context.Context, req domain.CompletionRequest, fn domain.StreamFunc,
) (domain.CompletionResult, error) {
	res, err := l.Complete(ctx, req)
	if err != nil {
		return domain.CompletionResult{}, err
	}
	if err := fn(res.Text); err != nil {
		return domain.CompletionResult{}, fmt.Errorf("stream consumer: %w", err)
	}
	return res, nil
}
