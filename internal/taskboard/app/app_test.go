package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewServesHealth(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig()
	cfg.LogLevel = "error"
	cfg.DatabaseFile = filepath.Join(dir, "taskboard.db")
	cfg.PepperFile = filepath.Join(dir, "pepper")

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.close() })

	require.Nil(t, app.limiter)
	require.Nil(t, app.kafka)

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"database":"ok"`)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.AccessTokenSecret = ""

	_, err := New(cfg)
	require.ErrorContains(t, err, "invalid configuration")
}
