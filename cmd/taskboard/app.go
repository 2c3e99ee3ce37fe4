package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskboard/internal/api/middleware"
	"github.com/phrazzld/taskboard/internal/config"
	"github.com/phrazzld/taskboard/internal/events"
	"github.com/phrazzld/taskboard/internal/platform/hosted"
	"github.com/phrazzld/taskboard/internal/platform/metrics"
	"github.com/phrazzld/taskboard/internal/platform/postgres"
	"github.com/phrazzld/taskboard/internal/querycache"
	"github.com/phrazzld/taskboard/internal/realtime"
	"github.com/phrazzld/taskboard/internal/service"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/phrazzld/taskboard/internal/stream"
)

// application holds the shared server dependencies so they can be wired once
// and torn down together.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	backend *backend

	cache   *querycache.Cache
	emitter *events.InMemoryEventEmitter
	hub     *stream.Hub

	// subscriber is nil when realtime is disabled.
	subscriber *realtime.Subscriber

	taskService   service.TaskService
	authenticator auth.Authenticator
	verifier      auth.TokenVerifier
	loginLimiter  *middleware.RateLimiter
}

// newApplication wires every server component from configuration.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		metrics: metrics.New(),
	}

	var err error
	app.backend, err = openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app.cache = querycache.New(cfg.Cache.Size, cfg.Cache.TTL(), app.metrics, logger)
	app.hub = stream.NewHub(stream.DefaultHeartbeat, app.metrics, logger)

	app.emitter = events.NewInMemoryEventEmitter(app.metrics, logger)
	app.emitter.RegisterHandler(app.cache)
	app.emitter.RegisterHandler(app.hub)

	if cfg.Realtime.Enabled {
		var source realtime.Source
		switch cfg.Realtime.Source {
		case config.SourcePostgres:
			source = postgres.NewChangeListener(cfg.Database.URL, logger)
		default:
			source = hosted.NewRealtimeSource(app.backend.client, cfg.Hosted.Schema, cfg.Hosted.Table,
				cfg.Realtime.HeartbeatInterval(), logger)
		}
		app.subscriber = realtime.NewSubscriber(source, app.emitter, cfg.Realtime.ReconnectDelay(), app.metrics, logger)
		logger.Info("realtime subscription configured", "source", source.Name())
	}

	app.taskService, err = service.NewTaskService(
		app.backend.store,
		app.cache,
		app.emitter,
		service.TaskServiceOptions{
			EmitLocalEvents: !cfg.Realtime.Enabled,
			Schema:          cfg.Hosted.Schema,
			Table:           cfg.Hosted.Table,
		},
		logger,
	)
	if err != nil {
		app.backend.close(logger)
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	app.authenticator = auth.NewAuthenticator(app.backend.client.Auth(), logger)
	app.verifier, err = app.backend.verifier(cfg)
	if err != nil {
		app.backend.close(logger)
		return nil, fmt.Errorf("failed to initialize token verifier: %w", err)
	}
	app.loginLimiter = middleware.NewRateLimiter(cfg.Auth.LoginRatePerMinute, cfg.Auth.LoginBurst)

	logger.Info("application initialized",
		"store_backend", cfg.Store.Backend,
		"realtime_enabled", cfg.Realtime.Enabled,
		"local_token_verification", cfg.Hosted.JWTSecret != "")
	return app, nil
}

// Run starts the realtime subscription and the HTTP server and blocks until
// ctx is cancelled or the server fails.
func (app *application) Run(ctx context.Context) error {
	router, err := app.setupRouter()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	subscriberDone := make(chan struct{})
	if app.subscriber != nil {
		go func() {
			defer close(subscriberDone)
			_ = app.subscriber.Run(ctx)
		}()
	} else {
		close(subscriberDone)
	}

	err = app.startHTTPServer(ctx, router)
	cancel()
	<-subscriberDone
	app.cleanup()
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases resources after the server has stopped.
func (app *application) cleanup() {
	app.hub.Close()
	app.backend.close(app.logger)
	app.logger.Info("application shutdown completed")
}
