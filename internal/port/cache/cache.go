// Package cache defines the port interface for the tenant-scoped view cache.
package cache

import (
	"context"
	"time"
)

// Cache is the port interface for key-value caching of derived views
// (org chart, department lists, dashboard stats).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Keys for tenant-scoped cached views. Compose with TenantKey.
const (
	KeyOrgChart    = "orgchart"
	KeyDepartments = "departments"
	KeyDashboard   = "dashboard-stats"
)

// TenantKey builds the cache key for a tenant-scoped view.
func TenantKey(tenantID, view string) string {
	return tenantID + ":" + view
}
