package tasksdk

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test"))
	require.NoError(t, err)
	return tok
}

func writeEnvelope(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": code < 300, "message": "ok", "data": data})
}

func TestAccessExpiry(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	require.Equal(t, exp.Add(-refreshSkew), accessExpiry(signedToken(t, exp)))
	require.True(t, accessExpiry("not-a-jwt").IsZero())
}

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	t.Run("envelope", func(t *testing.T) {
		body := []byte(`{"success":false,"message":"Validation failed","errors":[{"field":"email","message":"is required"}]}`)
		err := parseErrorResponse(&http.Response{StatusCode: http.StatusBadRequest}, body)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		require.Equal(t, "Validation failed", apiErr.Message)

		msg, ok := apiErr.Field("email")
		require.True(t, ok)
		require.Equal(t, "is required", msg)
		require.Contains(t, apiErr.Error(), "email: is required")
	})

	t.Run("non-envelope body", func(t *testing.T) {
		err := parseErrorResponse(&http.Response{StatusCode: http.StatusBadGateway}, []byte("upstream down"))
		require.Equal(t, http.StatusBadGateway, StatusCode(err))
	})

	t.Run("status of a wrapped error", func(t *testing.T) {
		err := parseErrorResponse(&http.Response{StatusCode: http.StatusUnauthorized}, []byte(`{"message":"nope"}`))
		require.Equal(t, http.StatusUnauthorized, StatusCode(errors.Join(errors.New("ctx"), err)))
		require.Zero(t, StatusCode(errors.New("plain")))
	})
}

func TestSessionRefreshesExpiredAccessToken(t *testing.T) {
	t.Parallel()

	var refreshes atomic.Int32
	fresh := signedToken(t, time.Now().Add(time.Hour))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.RefreshToken != "refresh-1" {
			writeEnvelope(w, http.StatusUnauthorized, nil)
			return
		}
		refreshes.Add(1)
		writeEnvelope(w, http.StatusOK, SessionResponse{
			User:         User{ID: "u1"},
			AccessToken:  fresh,
			RefreshToken: "refresh-2",
		})
	})
	mux.HandleFunc("GET /users/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+fresh {
			writeEnvelope(w, http.StatusForbidden, nil)
			return
		}
		writeEnvelope(w, http.StatusOK, User{ID: "u1", Username: "alice"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewSDKClient(srv.URL)
	session := client.NewSessionFromTokens(signedToken(t, time.Now().Add(-time.Minute)), "refresh-1")

	user, err := session.Profile(t.Context())
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "refresh-2", session.RefreshToken())

	// Still valid, no second rotation.
	_, err = session.Profile(t.Context())
	require.NoError(t, err)
	require.Equal(t, int32(1), refreshes.Load())
}

func TestSessionWithoutRefreshToken(t *testing.T) {
	t.Parallel()

	session := NewSDKClient("http://127.0.0.1:0").NewSessionFromTokens("", "")
	_, err := session.Profile(t.Context())
	require.ErrorContains(t, err, "no refresh token")
}
