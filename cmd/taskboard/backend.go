package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskboard/internal/config"
	"github.com/phrazzld/taskboard/internal/platform/hosted"
	"github.com/phrazzld/taskboard/internal/platform/postgres"
	"github.com/phrazzld/taskboard/internal/redact"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/phrazzld/taskboard/internal/store"
)

// backend bundles the connections to the hosted service and, for the
// postgres store, the database pool.
type backend struct {
	client *hosted.Client
	db     *sql.DB
	store  store.TaskStore
}

// openBackend connects the configured task store. The hosted client is always
// created because authentication goes through it regardless of the store.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	client, err := hosted.New(hosted.Config{
		URL:        cfg.Hosted.URL,
		AnonKey:    cfg.Hosted.AnonKey,
		ServiceKey: cfg.Hosted.ServiceKey,
		Timeout:    cfg.Hosted.Timeout(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create hosted client: %w", err)
	}

	b := &backend{client: client}

	needsDB := cfg.Store.Backend == config.BackendPostgres ||
		(cfg.Realtime.Enabled && cfg.Realtime.Source == config.SourcePostgres)
	if needsDB {
		b.db, err = postgres.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns)
		if err != nil {
			return nil, err
		}
		logger.Info("database connection established")
	}

	switch cfg.Store.Backend {
	case config.BackendPostgres:
		b.store = postgres.NewPostgresTaskStore(b.db, cfg.Database.RLSRole, logger)
	default:
		b.store = hosted.NewTaskStore(client, cfg.Hosted.Schema, cfg.Hosted.Table, logger)
	}
	return b, nil
}

// verifier picks local verification when the project JWT secret is known
// and falls back to asking the hosted auth API otherwise.
func (b *backend) verifier(cfg *config.Config) (auth.TokenVerifier, error) {
	if cfg.Hosted.JWTSecret != "" {
		return auth.NewJWTVerifier(cfg.Hosted.JWTSecret)
	}
	return auth.NewRemoteVerifier(b.client.Auth()), nil
}

func (b *backend) close(logger *slog.Logger) {
	if b.db == nil {
		return
	}
	if err := b.db.Close(); err != nil {
		logger.Error("error closing database connection", "error", redact.Error(err))
	}
}
