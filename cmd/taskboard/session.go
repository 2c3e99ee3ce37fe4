package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/principal"
)

// refreshMargin refreshes the access token slightly before it expires.
const refreshMargin = 30 * time.Second

var errNotLoggedIn = errors.New("not logged in, run `taskboard login` first")

// storedSession is the CLI's on-disk copy of a hosted session.
type storedSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
}

func newStoredSession(s *domain.Session) *storedSession {
	return &storedSession{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
		UserID:       s.User.ID,
		Email:        s.User.Email,
	}
}

func (s *storedSession) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.Add(refreshMargin).After(s.ExpiresAt)
}

func (s *storedSession) principal() principal.Principal {
	return principal.Principal{
		UserID:      s.UserID,
		Email:       s.Email,
		AccessToken: s.AccessToken,
	}
}

// sessionPath resolves --session, defaulting to the user config directory.
func (o *rootOptions) sessionPath() (string, error) {
	if o.sessionFile != "" {
		return o.sessionFile, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "taskboard", "session.json"), nil
}

func saveSession(path string, s *storedSession) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	// CreateTemp uses mode 0600 and the rename replaces any older file.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".session-*.json")
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func loadSession(path string) (*storedSession, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errNotLoggedIn
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s storedSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", path, err)
	}
	if s.AccessToken == "" || s.UserID == uuid.Nil {
		return nil, errNotLoggedIn
	}
	return &s, nil
}

func removeSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
