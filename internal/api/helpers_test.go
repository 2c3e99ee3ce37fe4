package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/api/shared"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/principal"
	"github.com/stretchr/testify/require"
)

// newRequest builds a request carrying an authenticated principal.
func newRequest(t *testing.T, method, target string, body any, userID uuid.UUID) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		ctx := principal.WithPrincipal(req.Context(), principal.Principal{
			UserID:      userID,
			Email:       "a@example.com",
			AccessToken: "access-token",
		})
		req = req.WithContext(ctx)
	}
	return req
}

// withURLParam adds a chi route parameter to req.
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var body shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func sampleTask(userID uuid.UUID) *domain.Task {
	created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Task{
		ID:            uuid.New(),
		UserID:        userID,
		DateRequested: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		TaskCreator:   "Dana",
		Client:        "Acme",
		Description:   "Fix checkout page",
		PageLink:      "https://acme.example/checkout",
		Priority:      domain.PriorityHigh,
		Deadline:      time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		Status:        domain.StatusInProgress,
		Notes:         "Needs QA",
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}
