package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/taskboard/pkg/jwtx"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

// AccessVerifier verifies an access token and returns its claims.
type AccessVerifier interface {
	VerifyAccessToken(token string) (*jwtx.AccessClaims, error)
}

// AuthnMiddleware authenticates the request with an access token taken from
// the named cookie, falling back to an Authorization: Bearer header. A
// missing token is a 401, any token that fails verification is a 403.
func AuthnMiddleware(v AccessVerifier, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := TokenFromRequest(r, cookieName)
			if raw == "" {
				ErrAccessTokenRequired.WriteError(w)
				return
			}

			claims, err := v.VerifyAccessToken(raw)
			if err != nil {
				log.Debug("access token rejected", "err", err)
				ErrInvalidToken.WriteError(w)
				return
			}

			id := Identity{UserID: claims.Subject, Role: claims.Role}
			ctx = WithIdentity(ctx, id)
			ctx = slogx.With(ctx, "user_id", id.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest returns the token from the named cookie if present and
// non-empty, otherwise from the bearer Authorization header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}

	authz := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(authz, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
