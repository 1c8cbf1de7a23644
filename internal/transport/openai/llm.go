package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/legalmind/lexrag/internal/domain"
	"github.com/legalmind/lexrag/internal/metrics"
)

// LLM is a completion provider using the OpenAI-compatible chat API.
type LLM struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

var _ domain.LanguageModel = (*LLM)(nil)

// LLMConfig holds the completion provider settings.
type LLMConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Provider string
	Logger   *zap.Logger
}

// NewLLM creates an OpenAI-compatible completion provider.
func NewLLM(cfg *LLMConfig) *LLM {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &LLM{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Complete implements domain.LanguageModel (blocking form).
func (l *LLM) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	start := time.Now()

	resp, err := l.client.CreateChatCompletion(ctx, l.chatRequest(req, false))

	duration := time.Since(start)

	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(l.provider, l.model, "error").Inc()
		return domain.CompletionResult{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(l.provider, l.model, "error").Inc()
		return domain.CompletionResult{}, fmt.Errorf("empty completion response: %w", domain.ErrModelUnavailable)
	}

	metrics.LLMRequestsTotal.WithLabelValues(l.provider, l.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(l.provider, l.model).Observe(duration.Seconds())
	recordTokens(l.provider, l.model, resp.Usage.PromptTokens, resp.Usage.TotalTokens)

	return domain.CompletionResult{
		Text:         resp.Choices[0].Message.Content,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// CompleteStream implements domain.LanguageModel (streaming form). fn is
// invoked once per generated chunk; its error aborts the stream.
func (l *LLM) CompleteStream(
	ctx context.Context, req domain.CompletionRequest, fn domain.StreamFunc,
) (domain.CompletionResult, error) {
	start := time.Now()

	stream, err := l.client.CreateChatCompletionStream(ctx, l.chatRequest(req, true))
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(l.provider, l.model, "error").Inc()
		return domain.CompletionResult{}, parseAPIError(err)
	}
	defer stream.Close()

	var full string
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			metrics.LLMRequestsTotal.WithLabelValues(l.provider, l.model, "error").Inc()
			return domain.CompletionResult{}, parseAPIError(err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full += delta
		if err := fn(delta); err != nil {
			return domain.CompletionResult{}, fmt.Errorf("stream consumer: %w", err)
		}
	}

	metrics.LLMRequestsTotal.WithLabelValues(l.provider, l.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(l.provider, l.model).Observe(time.Since(start).Seconds())

	return domain.CompletionResult{Text: full}, nil
}

func (l *LLM) chatRequest(req domain.CompletionRequest, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       l.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
}

func recordTokens(provider, model string, prompt, total int) {
	if total > 0 {
		metrics.LLMTokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(prompt))
		metrics.LLMTokensTotal.WithLabelValues(provider, model, "total").Add(float64(total))
	}
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrModelUnavailable so callers can
// degrade uniformly.
func parseAPIError(err error) error {
	wrap := domain.ErrModelUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("completion API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("completion request failed: %w", wrap)
}
