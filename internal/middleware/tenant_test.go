package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTenantIDFromHeader(t *testing.T) {
	var got string
	handler := TenantID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = TenantIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("X-Tenant-ID", "tenant-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "tenant-42" {
		t.Errorf("expected tenant-42, got %q", got)
	}
}

func TestTenantIDAbsentHeader(t *testing.T) {
	var got string
	handler := TenantID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = TenantIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "" {
		t.Errorf("expected empty tenant scope, got %q", got)
	}
}

func TestTenantIDFromContextUnscoped(t *testing.T) {
	if got := TenantIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
