package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a query that failed validation.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrBackendUnavailable signals a retrieval backend failure or timeout.
	ErrBackendUnavailable = errors.New("retrieval backend unavailable")
	// ErrModelUnavailable signals a language model provider failure.
	ErrModelUnavailable = errors.New("language model unavailable")
	// ErrModelOutputMalformed signals unparseable structured model output.
	ErrModelOutputMalformed = errors.New("malformed model output")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRateLimited signals a per-provider rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrBudgetExceeded signals an exhausted request deadline or budget.
	ErrBudgetExceeded = errors.New("request budget exceeded")
	// ErrTenantMismatch signals a cross-tenant access attempt.
	ErrTenantMismatch = errors.New("tenant mismatch")
)
