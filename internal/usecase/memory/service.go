// Package memory is the consultation memory: a keyword-similarity cache of
// prior decompositions, tenant-scoped, with human corrections that penalize
// specific references on future recall.
package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/legalmind/lexrag/internal/domain/consultation"
	"github.com/legalmind/lexrag/internal/logger"
)

// DefaultSimilarityThreshold is the minimum Jaccard score for recall.
const DefaultSimilarityThreshold = 0.55

// Service recalls and stores consultations.
type Service struct {
	repo      Repository
	threshold float64
}

// New creates a memory service. A non-positive threshold falls back to the
// default.
func New(repo Repository, threshold float64) *Service {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &Service{repo: repo, threshold: threshold}
}

// FindSimilar returns the most similar prior consultation of the same
// tenant, or nil when nothing reaches the threshold. Ties break toward the
// most recent record. Recall failures degrade to a miss, never an error:
// memory is an accelerator, not a dependency.
func (s *Service) FindSimilar(ctx context.Context, tenantID, query string) *consultation.Similar {
	records, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		logger.FromContext(ctx).Warn("Consultation recall failed", zap.Error(err))
		return nil
	}

	keywords := ExtractKeywords(query)

	var best *consultation.Similar
	for i := range records {
		rec := records[i]
		sim := jaccard(keywords, rec.Keywords)
		if sim < s.threshold {
			continue
		}
		if best == nil || sim > best.Similarity ||
			(sim == best.Similarity && rec.CreatedAt.After(best.Record.CreatedAt)) {
			best = &consultation.Similar{
				Record:        rec,
				Similarity:    sim,
				PenalizedRefs: rec.PenalizedRefs(),
			}
		}
	}
	return best
}

// Store persists a finished consultation and returns its id.
func (s *Service) Store(ctx context.Context, rec consultation.Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if len(rec.Keywords) == 0 {
		rec.Keywords = ExtractKeywords(rec.Query)
	}

	if err := s.repo.Save(ctx, &rec); err != nil {
		return "", fmt.Errorf("store consultation: %w", err)
	}
	return rec.ID, nil
}

// ApplyCorrection appends a human correction to a stored consultation. The
// flagged references are penalized on every later recall of that record.
func (s *Service) ApplyCorrection(ctx context.Context, tenantID, id string, badRefs []string, note string) error {
	if len(badRefs) == 0 {
		return fmt.Errorf("at least one bad reference is required")
	}
	return s.repo.AppendCorrection(ctx, tenantID, id, consultation.Correction{
		BadRefs:   badRefs,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	})
}
