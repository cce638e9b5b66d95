// Package middleware provides HTTP middleware for Zenora.
package middleware

import (
	"context"
	"net/http"
)

const headerTenantID = "X-Tenant-ID"

type tenantCtxKey struct{}

// TenantID is middleware that extracts the tenant ID from the X-Tenant-ID
// header and stores it in the request context. The Auth middleware later
// verifies the value against the authenticated user's tenant; an absent
// header is filled in from the user.
func TenantID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if tid := r.Header.Get(headerTenantID); tid != "" {
			ctx = WithTenantID(ctx, tid)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithTenantID returns a context scoped to the given tenant.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantCtxKey{}, tenantID)
}

// TenantIDFromContext returns the tenant ID stored in ctx, or an empty string
// if the request is not tenant-scoped.
func TenantIDFromContext(ctx context.Context) string {
	tid, _ := ctx.Value(tenantCtxKey{}).(string)
	return tid
}
