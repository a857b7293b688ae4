package middleware

import (
	"context"
	"net/http"
	"strings"
)

// identityHeader carries the authenticated caller id, set by the upstream
// auth proxy. This service trusts the value as already verified.
const identityHeader = "X-User-ID"

// ownerKey is the context key type for the caller identity.
// An unexported type prevents collisions with other packages' keys.
type ownerKey struct{}

// NewIdentityHandler returns a middleware that extracts the caller
// identity from the X-User-ID header into the request context. Requests
// without an identity are rejected with 401 — every route under /api is
// caller-scoped.
func NewIdentityHandler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner := strings.TrimSpace(r.Header.Get(identityHeader))
			if owner == "" {
				http.Error(w, "missing "+identityHeader+" header", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ownerKey{}, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerFromContext returns the caller identity placed by
// NewIdentityHandler, or "" when the middleware did not run.
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
