package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCommands(t *testing.T) {
	fake, srv := newFakeHosted(t)
	cfgPath := writeConfig(t, srv.URL, "")
	sessionPath := filepath.Join(t.TempDir(), "session.json")
	common := []string{"--config", cfgPath, "--session", sessionPath}
	run := func(args ...string) (string, error) {
		return runCLI(t, append(common, args...)...)
	}

	t.Run("list before login", func(t *testing.T) {
		_, err := run("tasks", "list")
		assert.ErrorIs(t, err, errNotLoggedIn)
	})

	t.Run("login with wrong password", func(t *testing.T) {
		t.Setenv(passwordEnv, "nope")
		_, err := run("login", "--email", testEmail)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid email or password")
	})

	t.Run("login", func(t *testing.T) {
		t.Setenv(passwordEnv, testPassword)
		out, err := run("login", "--email", testEmail)
		require.NoError(t, err)
		assert.Contains(t, out, "Signed in as "+testEmail)

		s, err := loadSession(sessionPath)
		require.NoError(t, err)
		assert.Equal(t, testUserID, s.UserID)
		assert.False(t, s.expired(time.Now()))
	})

	t.Run("list", func(t *testing.T) {
		out, err := run("tasks", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "Fix checkout page")
		assert.Contains(t, out, "High")
		assert.Contains(t, out, "In progress")
		assert.Contains(t, out, "Oct 19, 2026")
		assert.Contains(t, out, "1 task(s)")
	})

	t.Run("list with search", func(t *testing.T) {
		out, err := run("tasks", "list", "--search", "ACME")
		require.NoError(t, err)
		assert.Contains(t, out, "Fix checkout page")

		out, err = run("tasks", "list", "--search", "globex")
		require.NoError(t, err)
		assert.Contains(t, out, "No tasks found. Create a new task to get started!")
	})

	t.Run("show", func(t *testing.T) {
		out, err := run("tasks", "show", "0b3c2e6c-1d8e-4a57-9a0f-2f4e5d6c7b8a")
		require.NoError(t, err)
		assert.Contains(t, out, "Button misaligned")
		assert.Contains(t, out, "Acme")
	})

	t.Run("show unknown", func(t *testing.T) {
		_, err := run("tasks", "show", "8d1f6a2e-3b4c-4d5e-8f90-123456789abc")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("create", func(t *testing.T) {
		out, err := run("tasks", "create",
			"--client", "Globex",
			"--description", "Audit SEO",
			"--deadline", "2026-11-15",
			"--priority", "low")
		require.NoError(t, err)
		assert.Contains(t, out, "Task created")
		assert.Contains(t, out, "Audit SEO")
		assert.Contains(t, out, "Low")
		assert.Contains(t, out, "To do")

		out, err = run("tasks", "list", "--search", "globex")
		require.NoError(t, err)
		assert.Contains(t, out, "Audit SEO")
	})

	t.Run("expired session is refreshed", func(t *testing.T) {
		s, err := loadSession(sessionPath)
		require.NoError(t, err)
		s.ExpiresAt = time.Now().Add(-time.Minute)
		require.NoError(t, saveSession(sessionPath, s))

		_, err = run("tasks", "list")
		require.NoError(t, err)

		refreshed, err := loadSession(sessionPath)
		require.NoError(t, err)
		assert.True(t, refreshed.ExpiresAt.After(time.Now()))
		fake.mu.Lock()
		assert.Equal(t, 1, fake.refreshes)
		fake.mu.Unlock()
	})

	t.Run("logout", func(t *testing.T) {
		out, err := run("logout")
		require.NoError(t, err)
		assert.Contains(t, out, "Signed out")
		fake.mu.Lock()
		assert.Equal(t, 1, fake.signOuts)
		fake.mu.Unlock()

		_, err = loadSession(sessionPath)
		assert.ErrorIs(t, err, errNotLoggedIn)

		out, err = run("logout")
		require.NoError(t, err)
		assert.Contains(t, out, "Not signed in")
	})
}

func TestTasksCreate_Validation(t *testing.T) {
	_, err := runCLI(t, "tasks", "create", "--client", "Acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")

	_, err = runCLI(t, "tasks", "create", "--client", "Acme", "--description", "x", "--deadline", "19/10/2026")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadline")

	_, err = runCLI(t, "tasks", "create", "--client", "Acme", "--description", "x", "--deadline", "2026-10-19", "--priority", "urgent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "priority")
}

func TestTasksShow_InvalidID(t *testing.T) {
	_, err := runCLI(t, "tasks", "show", "not-a-uuid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid task id")
}

func TestMigrate_UnknownCommand(t *testing.T) {
	_, err := runCLI(t, "migrate", "sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown migration command")
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	_, srv := newFakeHosted(t)
	cfgPath := writeConfig(t, srv.URL, "")

	_, err := runCLI(t, "--config", cfgPath, "migrate", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url")
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "taskboard dev")
}
