package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-backend/internal/shared/config"
)

func buildTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "bootstrap-test-secret")
	dir := t.TempDir()
	app, err := Build(context.Background(), config.Config{
		Env:               "dev",
		LocalStoreDir:     filepath.Join(dir, "files"),
		PublicBaseURL:     "http://localhost:8080",
		FallbackDBPath:    filepath.Join(dir, "fallback.db"),
		ReconcileStrategy: "overwrite",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func call(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestBuildServesHealthWithFallbackCheck(t *testing.T) {
	app := buildTestApp(t)

	w := call(t, app.Router, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report struct {
		OK         bool              `json:"ok"`
		Components map[string]string `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.True(t, report.OK)
	assert.Equal(t, "up", report.Components["fallback"])
	assert.NotContains(t, report.Components, "postgres")
}

func TestBuildWiresSignupProfileAndSave(t *testing.T) {
	app := buildTestApp(t)

	w := call(t, app.Router, http.MethodGet, "/api/v1/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(t, app.Router, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"email":    "ada@example.com",
		"password": "analytical",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)

	w = call(t, app.Router, http.MethodGet, "/api/v1/me", session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "ada@example.com")

	w = call(t, app.Router, http.MethodGet, "/api/v1/profile", session.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"source":"default"`)

	w = call(t, app.Router, http.MethodPost, "/api/v1/profile/save", session.Token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w = call(t, app.Router, http.MethodPost, "/api/v1/profile/resume-text", session.Token, map[string]string{
		"text": "Ada Lovelace, analyst",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(t, app.Router, http.MethodPost, "/api/v1/profile/analyze", session.Token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())
}
