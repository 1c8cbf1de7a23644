package memory

import (
	"context"

	"github.com/legalmind/lexrag/internal/domain/consultation"
)

// Repository is the persistence capability the memory service consumes.
type Repository interface {
	Save(ctx context.Context, rec *consultation.Record) error
	ListByTenant(ctx context.Context, tenantID string) ([]consultation.Record, error)
	AppendCorrection(ctx context.Context, tenantID, id string, corr consultation.Correction) error
}
