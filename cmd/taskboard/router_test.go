package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/taskboard/internal/config"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApplication(t *testing.T, hostedURL string) *application {
	t.Helper()
	cfg, err := config.LoadFile(writeConfig(t, hostedURL, "  jwt_secret: "+testJWTSecret+"\n"))
	require.NoError(t, err)

	log, _ := logger.NewTestLogger()
	app, err := newApplication(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(app.cleanup)
	return app
}

func TestNewApplication_Wiring(t *testing.T) {
	_, srv := newFakeHosted(t)
	app := newTestApplication(t, srv.URL)

	assert.Nil(t, app.subscriber, "realtime is disabled")
	assert.Nil(t, app.backend.db)
	assert.NotNil(t, app.taskService)
	assert.NotNil(t, app.verifier)
}

func TestRouter(t *testing.T) {
	fake, srv := newFakeHosted(t)
	app := newTestApplication(t, srv.URL)
	router, err := app.setupRouter()
	require.NoError(t, err)

	token, err := auth.SignTestToken(testJWTSecret, auth.TestTokenOptions{UserID: testUserID, Email: testEmail})
	require.NoError(t, err)

	do := func(method, path, bearer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("health", func(t *testing.T) {
		rr := do(http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rr.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("tasks require auth", func(t *testing.T) {
		rr := do(http.MethodGet, "/api/tasks", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("X-Trace-Id"))
	})

	t.Run("tasks list", func(t *testing.T) {
		rr := do(http.MethodGet, "/api/tasks?q=acme", token)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Fix checkout page")
		assert.Contains(t, rr.Body.String(), "bg-priority-high")

		fake.mu.Lock()
		assert.Equal(t, token, fake.lastBearer)
		fake.mu.Unlock()
	})

	t.Run("dashboard login page", func(t *testing.T) {
		rr := do(http.MethodGet, "/", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Welcome Back")
	})

	t.Run("metrics", func(t *testing.T) {
		rr := do(http.MethodGet, "/metrics", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "taskboard_http_requests_total")
	})
}
