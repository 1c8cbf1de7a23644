package query

import (
	"fmt"

	"github.com/legalmind/lexrag/internal/domain"
)

// Query parameter limits.
const (
	// MaxLength is the maximum allowed query length.
	MaxLength = 4096
)

// Query is a validated, immutable user question.
type Query struct {
	text     string
	tenantID string
	scope    string
	caseID   string
}

// New validates and normalizes a query. Tenant is mandatory; scope and
// caseID are optional.
func New(text, tenantID, scope, caseID string) (Query, error) {
	if text == "" {
		return Query{}, fmt.Errorf("%w: text is required", domain.ErrInvalidQuery)
	}
	if len(text) > MaxLength {
		return Query{}, fmt.Errorf("%w: text too long (max %d chars)", domain.ErrInvalidQuery, MaxLength)
	}
	if tenantID == "" {
		return Query{}, fmt.Errorf("%w: tenant id is required", domain.ErrInvalidQuery)
	}
	return Query{text: text, tenantID: tenantID, scope: scope, caseID: caseID}, nil
}

// Text returns the raw question text.
func (q *Query) Text() string { return q.text }

// TenantID returns the owning tenant.
func (q *Query) TenantID() string { return q.tenantID }

// Scope returns the optional corpus scope.
func (q *Query) Scope() string { return q.scope }

// CaseID returns the optional case identifier.
func (q *Query) CaseID() string { return q.caseID }
