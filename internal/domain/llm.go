package domain

import (
	"context"
	"time"
)

// CompletionRequest is a single prompt sent to a language model provider.
type CompletionRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// CompletionResult carries generated text and token usage.
type CompletionResult struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}

// StreamFunc receives one generated chunk at a time. Returning an error
// aborts the stream.
type StreamFunc func(chunk string) error

// LanguageModel is the text generation contract. Complete is used for
// internal calls (classification, decomposition); CompleteStream for the
// user-facing answer.
type LanguageModel interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
	CompleteStream(ctx context.Context, req CompletionRequest, fn StreamFunc) (CompletionResult, error)
}

// TimeoutModel bounds every call to the wrapped model with its own
// deadline, so a hung provider cannot eat the whole request budget and
// calls made outside any request deadline still terminate.
type TimeoutModel struct {
	inner   LanguageModel
	timeout time.Duration
}

// NewTimeoutModel wraps a model with a per-call timeout. A non-positive
// timeout disables the bound.
func NewTimeoutModel(inner LanguageModel, timeout time.Duration) *TimeoutModel {
	return &TimeoutModel{inner: inner, timeout: timeout}
}

// Complete implements LanguageModel.
func (m *TimeoutModel) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	ctx, cancel := m.bound(ctx)
	defer cancel()
	return m.inner.Complete(ctx, req)
}

// CompleteStream implements LanguageModel. The timeout covers the whole
// stream, first byte to last.
func (m *TimeoutModel) CompleteStream(ctx context.Context, req CompletionRequest, fn StreamFunc) (CompletionResult, error) {
	ctx, cancel := m.bound(ctx)
	defer cancel()
	return m.inner.CompleteStream(ctx, req, fn)
}

func (m *TimeoutModel) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.timeout)
}

// FallbackModel tries an explicit ordered list of providers and returns the
// first success. The fallback order is fixed at construction; no runtime
// type inspection.
type FallbackModel struct {
	models []LanguageModel
}

// NewFallbackModel builds a fallback chain. At least one model is expected;
// an empty chain always returns ErrModelUnavailable.
func NewFallbackModel(models ...LanguageModel) *FallbackModel {
	return &FallbackModel{models: models}
}

// Complete implements LanguageModel.
func (f *FallbackModel) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	var lastErr error = ErrModelUnavailable
	for _, m := range f.models {
		res, err := m.Complete(ctx, req)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return CompletionResult{}, lastErr
}

// CompleteStream implements LanguageModel. A provider that failed after
// already delivering chunks is not retried: the client saw partial output
// and a second provider would duplicate it.
func (f *FallbackModel) CompleteStream(ctx context.Context, req CompletionRequest, fn StreamFunc) (CompletionResult, error) {
	var lastErr error = ErrModelUnavailable
	for _, m := range f.models {
		emitted := false
		wrapped := func(chunk string) error {
			emitted = true
			return fn(chunk)
		}
		res, err := m.CompleteStream(ctx, req, wrapped)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if emitted || ctx.Err() != nil {
			break
		}
	}
	return CompletionResult{}, lastErr
}
