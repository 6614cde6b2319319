package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
)

const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"
)

// CookieConfig controls the attributes of the session cookies.
type CookieConfig struct {
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func (c CookieConfig) cookie(name, value string, maxAge int) *http.Cookie {
	sameSite := c.SameSite
	if sameSite == 0 {
		sameSite = http.SameSiteLaxMode
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   maxAge,
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: sameSite,
	}
}

// setSession writes both tokens as http-only cookies that expire with the
// tokens themselves.
func (c CookieConfig) setSession(w http.ResponseWriter, pair domain.TokenPair, now time.Time) {
	http.SetCookie(w, c.cookie(AccessCookieName, pair.AccessToken, maxAge(pair.AccessExpiresAt, now)))
	http.SetCookie(w, c.cookie(RefreshCookieName, pair.RefreshToken, maxAge(pair.RefreshExpiresAt, now)))
}

func (c CookieConfig) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie(AccessCookieName, "", -1))
	http.SetCookie(w, c.cookie(RefreshCookieName, "", -1))
}

func maxAge(expiresAt, now time.Time) int {
	return max(int(expiresAt.Sub(now).Seconds()), 1)
}

// ParseSameSite maps lax, strict and none onto http.SameSite. Anything
// else is lax.
func ParseSameSite(s string) http.SameSite {
	switch s {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
