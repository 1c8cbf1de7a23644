// Package fusion runs all configured retrieval backends in parallel and
// merges their rankings with weighted Reciprocal Rank Fusion. A failing or
// timed-out backend is excluded and logged; it never aborts the call.
package fusion

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/legalmind/lexrag/internal/domain/candidate"
	"github.com/legalmind/lexrag/internal/logger"
	"github.com/legalmind/lexrag/internal/metrics"
	"github.com/legalmind/lexrag/internal/retrieval"
)

// Output carries fused results plus soft-failure warnings for result
// metadata.
type Output struct {
	Results  []candidate.Fused
	Warnings []string
}

// Service is the hybrid fusion engine.
type Service struct {
	adapters       []Adapter
	adapterTimeout time.Duration
	rrfK           int
}

// New creates a fusion service over the configured adapters.
func New(adapters []Adapter, adapterTimeout time.Duration, rrfK int) *Service {
	if rrfK <= 0 {
		rrfK = DefaultRRFK
	}
	return &Service{adapters: adapters, adapterTimeout: adapterTimeout, rrfK: rrfK}
}

// Fuse fans out to every adapter with a weight > 0, each call bounded by
// its own timeout, and fuses whatever came back. Zero healthy backends
// yield an empty result, not an error.
func (s *Service) Fuse(ctx context.Context, req retrieval.Request, weights Weights) Output {
	log := logger.FromContext(ctx)

	var mu sync.Mutex
	var rankings []ranking
	var warnings []string

	g, gctx := errgroup.WithContext(ctx)

	for _, a := range s.adapters {
		weight := weights[a.Name()]
		if weight <= 0 {
			continue
		}

		g.Go(func() error {
			actx, cancel := context.WithTimeout(gctx, s.adapterTimeout)
			defer cancel()

			start := time.Now()
			cands, err := a.Search(actx, req)
			duration := time.Since(start)

			name := string(a.Name())
			metrics.BackendRequestDuration.WithLabelValues(name).Observe(duration.Seconds())

			if err != nil {
				metrics.BackendRequestsTotal.WithLabelValues(name, "error").Inc()
				log.Warn("Retrieval backend excluded from fusion",
					zap.String("backend", name),
					zap.Duration("elapsed", duration),
					zap.Error(err))

				mu.Lock()
				warnings = append(warnings, "backend "+name+" unavailable")
				mu.Unlock()
				return nil // soft failure
			}

			metrics.BackendRequestsTotal.WithLabelValues(name, "success").Inc()

			mu.Lock()
			rankings = append(rankings, ranking{backend: a.Name(), weight: weight, candidates: cands})
			mu.Unlock()
			return nil
		})
	}

	// Adapters only return nil; Wait is the fan-in barrier.
	_ = g.Wait()

	return Output{
		Results:  fuseRRF(rankings, s.rrfK, req.TopK),
		Warnings: warnings,
	}
}
