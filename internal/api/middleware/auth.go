// internal/api/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strconv"
)

// Headers carrying the gateway-authenticated caller identity. Token
// verification happens upstream; this service trusts the resolved principal.
const (
	PrincipalIDHeader   = "X-User-ID"
	PrincipalRoleHeader = "X-User-Role"
)

// Principal is the authenticated caller identity.
type Principal struct {
	ID   int64
	Role string
}

type contextKey struct{}

var principalKey contextKey

// Authenticate resolves the caller principal from the gateway headers and
// stores it on the request context. Requests without a usable principal are
// rejected with 401.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idStr := r.Header.Get(PrincipalIDHeader)
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "missing or invalid principal", http.StatusUnauthorized)
			return
		}
		role := r.Header.Get(PrincipalRoleHeader)
		if role == "" {
			role = "user"
		}
		ctx := context.WithValue(r.Context(), principalKey, Principal{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerFrom extracts the authenticated principal from ctx.
func CallerFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}
