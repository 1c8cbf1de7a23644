// Package consultation persists consultation records in the key-value
// store, scoped by tenant, with an index set per tenant.
package consultation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalmind/lexrag/internal/db"
	"github.com/legalmind/lexrag/internal/domain"
	domcons "github.com/legalmind/lexrag/internal/domain/consultation"
)

const keyPrefix = "lexrag:consultation:"

// store is the consumer interface for record persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SAdd(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Repo stores consultation records.
type Repo struct {
	store  store
	logger *zap.Logger
}

// New creates a consultation repository.
func New(s store, logger *zap.Logger) *Repo {
	return &Repo{store: s, logger: logger}
}

// Save persists a record and registers it in the tenant index.
func (r *Repo) Save(ctx context.Context, rec *domcons.Record) error {
	if rec.ID == "" || rec.TenantID == "" {
		return fmt.Errorf("record id and tenant id are required")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := r.store.Set(ctx, r.recordKey(rec.TenantID, rec.ID), data); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	if err := r.store.SAdd(ctx, r.indexKey(rec.TenantID), rec.ID); err != nil {
		return fmt.Errorf("index record: %w", err)
	}
	return nil
}

// Get loads one record. The tenant must match the key the record was
// stored under; cross-tenant ids come back as ErrNotFound.
func (r *Repo) Get(ctx context.Context, tenantID, id string) (*domcons.Record, error) {
	data, err := r.store.Get(ctx, r.recordKey(tenantID, id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}

	var rec domcons.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

// ListByTenant loads every record of one tenant. Records that fail to
// load are skipped with a warning; recall quality degrades, lookup does not.
func (r *Repo) ListByTenant(ctx context.Context, tenantID string) ([]domcons.Record, error) {
	ids, err := r.store.SMembers(ctx, r.indexKey(tenantID))
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	out := make([]domcons.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := r.Get(ctx, tenantID, id)
		if err != nil {
			r.logger.Warn("Skipping unreadable consultation record",
				zap.String("tenant", tenantID), zap.String("id", id), zap.Error(err))
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

// AppendCorrection attaches a correction to an existing record.
func (r *Repo) AppendCorrection(ctx context.Context, tenantID, id string, corr domcons.Correction) error {
	rec, err := r.Get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	rec.Corrections = append(rec.Corrections, corr)
	return r.Save(ctx, rec)
}

func (r *Repo) recordKey(tenantID, id string) string {
	return keyPrefix + tenantID + ":" + id
}

func (r *Repo) indexKey(tenantID string) string {
	return keyPrefix + "idx:" + tenantID
}
