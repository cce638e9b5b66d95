package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/zenora-hq/zenora-core/internal/domain/user"
)

type authUserCtxKey struct{}

// TokenValidator resolves a bearer token to the user owning it.
// Implemented by service.AuthService.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*user.User, error)
}

// publicPaths are exempt from authentication.
var publicPaths = map[string]bool{
	"/health":            true,
	"/api/v1/auth/login": true,
}

// Auth returns middleware that validates the Authorization bearer token,
// stores the authenticated user in the context and pins the tenant scope to
// the user's tenant. A present X-Tenant-ID header that disagrees with the
// user's tenant is rejected; impersonating another tenant is never allowed.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader || token == "" {
				http.Error(w, `{"error":"invalid authorization header"}`, http.StatusUnauthorized)
				return
			}

			u, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			if tid := TenantIDFromContext(r.Context()); tid != "" && tid != u.TenantID {
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), authUserCtxKey{}, u)
			ctx = WithTenantID(ctx, u.TenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser returns a context carrying the authenticated user. Used by tests
// and by queue subscribers that act on behalf of a recorded actor.
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, authUserCtxKey{}, u)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *user.User {
	u, _ := ctx.Value(authUserCtxKey{}).(*user.User)
	return u
}
