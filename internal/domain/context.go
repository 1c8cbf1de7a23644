package domain

import "context"

type tenantKey struct{}

// ContextWithTenant attaches the requesting tenant for layers that apply
// per-tenant policy (rate limits, response caches).
func ContextWithTenant(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// TenantFromContext returns the tenant id, or "shared" when no request
// tenant is attached.
func TenantFromContext(ctx context.Context) string {
	if t, ok := ctx.Value(tenantKey{}).(string); ok && t != "" {
		return t
	}
	return "shared"
}
