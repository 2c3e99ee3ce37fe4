package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskboard/internal/principal"
	"github.com/phrazzld/taskboard/internal/querycache"
	"github.com/phrazzld/taskboard/internal/service"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/spf13/cobra"
)

// cliCacheSize is enough for the single user a CLI process serves.
const cliCacheSize = 4

// cliClient is what the client subcommands need: the task service and the
// hosted authenticator, both bound to the configured backend.
type cliClient struct {
	backend       *backend
	tasks         service.TaskService
	authenticator auth.Authenticator
	sessionPath   string
	logger        *slog.Logger
	now           func() time.Time
}

func (o *rootOptions) openClient(cmd *cobra.Command) (*cliClient, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	path, err := o.sessionPath()
	if err != nil {
		return nil, err
	}

	log := o.cliLogger(cmd, "warn")
	b, err := openBackend(cmd.Context(), cfg, log)
	if err != nil {
		return nil, err
	}

	cache := querycache.New(cliCacheSize, cfg.Cache.TTL(), nil, log)
	tasks, err := service.NewTaskService(b.store, cache, nil, service.TaskServiceOptions{}, log)
	if err != nil {
		b.close(log)
		return nil, err
	}

	return &cliClient{
		backend:       b,
		tasks:         tasks,
		authenticator: auth.NewAuthenticator(b.client.Auth(), log),
		sessionPath:   path,
		logger:        log,
		now:           time.Now,
	}, nil
}

func (c *cliClient) close() {
	c.backend.close(c.logger)
}

// signedIn returns a context carrying the stored session's principal,
// refreshing and re-saving the session when its access token has expired.
func (c *cliClient) signedIn(ctx context.Context) (context.Context, principal.Principal, error) {
	s, err := loadSession(c.sessionPath)
	if err != nil {
		return nil, principal.Principal{}, err
	}

	if s.expired(c.now()) {
		refreshed, err := c.authenticator.Refresh(ctx, s.RefreshToken)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrMissingToken) {
				return nil, principal.Principal{}, errNotLoggedIn
			}
			return nil, principal.Principal{}, fmt.Errorf("failed to refresh session: %w", err)
		}
		s = newStoredSession(refreshed)
		if err := saveSession(c.sessionPath, s); err != nil {
			return nil, principal.Principal{}, err
		}
		c.logger.Debug("session refreshed", "user_id", s.UserID)
	}

	p := s.principal()
	return principal.WithPrincipal(ctx, p), p, nil
}
