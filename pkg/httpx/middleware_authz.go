package httpx

import (
	"errors"
	"net/http"
	"slices"
)

// ErrNotOwner is returned by CheckOwnership when the caller neither owns the
// resource nor holds a bypass role.
var ErrNotOwner = errors.New("httpx: not resource owner")

// RequireRole lets the request through only if the authenticated caller has
// one of the given roles. It must run after AuthnMiddleware.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				ErrAuthRequired.WriteError(w)
				return
			}

			if !slices.Contains(roles, id.Role) {
				ErrInsufficientPermissions.WriteError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CheckOwnership allows callers holding a bypass role and callers whose id
// matches ownerID.
func CheckOwnership(id Identity, ownerID string, bypassRoles ...string) error {
	if slices.Contains(bypassRoles, id.Role) {
		return nil
	}
	if id.UserID == "" || id.UserID != ownerID {
		return ErrNotOwner
	}
	return nil
}

// RequireOwnership applies CheckOwnership to the path parameter param, e.g.
// "/users/{id}" with param "id".
func RequireOwnership(param string, bypassRoles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				ErrAuthRequired.WriteError(w)
				return
			}

			if err := CheckOwnership(id, r.PathValue(param), bypassRoles...); err != nil {
				ErrAccessDenied.WriteError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
