// Package identity carries the caller identity forwarded by the auth gateway.
//
// Credential verification and token issuance live in an upstream collaborator;
// this service only trusts the identity headers the gateway injects after
// authenticating the session.
package identity

import (
	"context"
	"net/http"
	"strconv"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/platform/httpx"
)

// Role enumerates the dashboard roles.
type Role string

const (
	// RoleLSR is the load service representative who originates requests.
	RoleLSR Role = "lsr"
	// RoleOfficer is the logistics officer who reviews submitted requests.
	RoleOfficer Role = "officer"
)

// Headers injected by the auth gateway.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// User identifies the authenticated caller.
type User struct {
	ID   int64
	Role Role
}

type userContextKey struct{}

// ContextWithUser stores the user in context.
func ContextWithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext extracts the user from context.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userContextKey{}).(User)
	return u, ok
}

// Middleware parses gateway identity headers into the request context.
// Requests without a valid identity are rejected before reaching handlers.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get(HeaderUserID), 10, 64)
		if err != nil || id <= 0 {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		role := Role(r.Header.Get(HeaderUserRole))
		if role != RoleLSR && role != RoleOfficer {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		ctx := ContextWithUser(r.Context(), User{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route group to one role.
func RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if u.Role != role {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
