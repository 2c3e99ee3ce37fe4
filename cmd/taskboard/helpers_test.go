package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	testEmail     = "ada@example.com"
	testPassword  = "correct horse battery"
	testJWTSecret = "a-test-secret-that-is-long-enough-for-hs256"
)

var testUserID = uuid.MustParse("6f0c1c5e-8a55-4f61-9a43-7b1d0f3f2a10")

// fakeHosted imitates the hosted auth and REST APIs closely enough for the
// client commands and the server wiring.
type fakeHosted struct {
	mu         sync.Mutex
	rows       []map[string]any
	signOuts   int
	refreshes  int
	lastBearer string
}

func newFakeHosted(t *testing.T) (*fakeHosted, *httptest.Server) {
	t.Helper()
	f := &fakeHosted{
		rows: []map[string]any{{
			"id":             "0b3c2e6c-1d8e-4a57-9a0f-2f4e5d6c7b8a",
			"user_id":        testUserID.String(),
			"date_requested": "2026-10-01",
			"client":         "Acme",
			"description":    "Fix checkout page",
			"priority":       "High",
			"deadline":       "2026-10-19",
			"status":         "In progress",
			"notes":          "Button misaligned",
			"created_at":     "2026-10-01T10:00:00Z",
			"updated_at":     "2026-10-01T10:00:00Z",
		}},
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeHosted) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastBearer = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/auth/v1/health":
		_, _ = io.WriteString(w, `{"name":"GoTrue"}`)

	case r.URL.Path == "/auth/v1/token":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Query().Get("grant_type") {
		case "password":
			if body["email"] != testEmail || body["password"] != testPassword {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)
				return
			}
		case "refresh_token":
			f.refreshes++
		}
		writeJSON(w, map[string]any{
			"access_token":  "access-" + uuid.NewString(),
			"token_type":    "bearer",
			"expires_in":    3600,
			"refresh_token": "refresh-token",
			"user":          map[string]any{"id": testUserID.String(), "email": testEmail, "aud": "authenticated"},
		})

	case r.URL.Path == "/auth/v1/logout":
		f.signOuts++
		w.WriteHeader(http.StatusNoContent)

	case r.URL.Path == "/rest/v1/tasks" && r.Method == http.MethodGet:
		if id := strings.TrimPrefix(r.URL.Query().Get("id"), "eq."); id != "" {
			for _, row := range f.rows {
				if row["id"] == id {
					writeJSON(w, []map[string]any{row})
					return
				}
			}
			writeJSON(w, []map[string]any{})
			return
		}
		writeJSON(w, f.rows)

	case r.URL.Path == "/rest/v1/tasks" && r.Method == http.MethodPost:
		var row map[string]any
		_ = json.NewDecoder(r.Body).Decode(&row)
		row["created_at"] = "2026-10-19T09:00:00Z"
		row["updated_at"] = "2026-10-19T09:00:00Z"
		f.rows = append([]map[string]any{row}, f.rows...)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, []map[string]any{row})

	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"not found"}`)
	}
}

func writeJSON(w io.Writer, v any) {
	_ = json.NewEncoder(w).Encode(v)
}

// writeConfig writes a config file pointing at the fake hosted service.
func writeConfig(t *testing.T, hostedURL string, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskboard.yaml")
	content := "hosted:\n" +
		"  url: " + hostedURL + "\n" +
		"  anon_key: anon-key\n" +
		extra +
		"realtime:\n" +
		"  enabled: false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// runCLI executes the command tree with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}
