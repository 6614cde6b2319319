package http_test

import (
	"net/http"
	"strings"
	"testing"

	taskhttp "github.com/aussiebroadwan/taskboard/internal/taskboard/http"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/service"
	"github.com/aussiebroadwan/taskboard/pkg/tasksdk"
	"github.com/stretchr/testify/require"
)

const testBootstrapToken = "bootstrap-token-for-tests"

func withBootstrap(token string) serverOption {
	return func(r *taskhttp.Router) {
		r.BootstrapService = &service.BootstrapService{Store: r.UserService.Store, Token: token}
	}
}

func TestBootstrap(t *testing.T) {
	t.Run("disabled without a token", func(t *testing.T) {
		s := newTestServer(t, withBootstrap(""))
		s.register(t, "alice", tasksdk.RoleUser)

		resp := s.do(t, http.MethodPost, "/auth/bootstrap", nil, func(r *http.Request) {
			r.Header.Set(taskhttp.BootstrapTokenHeader, "anything")
		})
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("token required", func(t *testing.T) {
		s := newTestServer(t, withBootstrap(testBootstrapToken))
		s.register(t, "alice", tasksdk.RoleUser)

		resp := s.do(t, http.MethodPost, "/auth/bootstrap", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		env := decodeEnvelope(t, resp, nil)
		require.False(t, env.Success)
		require.Contains(t, env.Message, taskhttp.BootstrapTokenHeader)

		_, err := s.client.Bootstrap(t.Context(), "wrong", "")
		requireStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("malformed body", func(t *testing.T) {
		s := newTestServer(t, withBootstrap(testBootstrapToken))

		req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, s.URL+"/auth/bootstrap", strings.NewReader("{"))
		require.NoError(t, err)
		req.Header.Set(taskhttp.BootstrapTokenHeader, testBootstrapToken)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("no users yet", func(t *testing.T) {
		s := newTestServer(t, withBootstrap(testBootstrapToken))

		_, err := s.client.Bootstrap(t.Context(), testBootstrapToken, "")
		requireStatus(t, err, http.StatusNotFound)
	})

	t.Run("promotes the first user once", func(t *testing.T) {
		s := newTestServer(t, withBootstrap(testBootstrapToken))
		alice := s.register(t, "alice", tasksdk.RoleUser)
		bob := s.register(t, "bob", tasksdk.RoleUser)

		session := s.login(t, "alice")
		_, err := session.ListUsers(t.Context(), 10, 0)
		requireStatus(t, err, http.StatusForbidden)

		admin, err := s.client.Bootstrap(t.Context(), testBootstrapToken, "")
		require.NoError(t, err)
		require.Equal(t, alice.ID, admin.ID)
		require.Equal(t, tasksdk.RoleAdmin, admin.Role)

		// The role reaches the access token on refresh
		require.NoError(t, session.Refresh(t.Context()))
		page, err := session.ListUsers(t.Context(), 10, 0)
		require.NoError(t, err)
		require.Equal(t, 2, page.Total)

		_, err = s.client.Bootstrap(t.Context(), testBootstrapToken, bob.Email)
		requireStatus(t, err, http.StatusConflict)
	})

	t.Run("promotes by email", func(t *testing.T) {
		s := newTestServer(t, withBootstrap(testBootstrapToken))
		s.register(t, "alice", tasksdk.RoleUser)
		bob := s.register(t, "bob", tasksdk.RoleUser)

		_, err := s.client.Bootstrap(t.Context(), testBootstrapToken, "nobody@example.com")
		requireStatus(t, err, http.StatusNotFound)

		admin, err := s.client.Bootstrap(t.Context(), testBootstrapToken, "BOB@example.com")
		require.NoError(t, err)
		require.Equal(t, bob.ID, admin.ID)
		require.Equal(t, tasksdk.RoleAdmin, admin.Role)
	})
}
