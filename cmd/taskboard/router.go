package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/taskboard/internal/api"
	"github.com/phrazzld/taskboard/internal/api/middleware"
	"github.com/phrazzld/taskboard/internal/web"
)

const healthCheckTimeout = 3 * time.Second

// setupRouter builds the HTTP surface: JSON API, SSE stream, dashboard pages,
// health and metrics.
func (app *application) setupRouter() (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Trace(app.logger))
	r.Use(app.metrics.Middleware)
	r.Use(chimiddleware.Recoverer)

	authMiddleware := middleware.NewAuthMiddleware(app.verifier, app.config.Auth.SessionCookie)
	authHandler := api.NewAuthHandler(app.authenticator, app.logger)
	taskHandler := api.NewTaskHandler(app.taskService, app.hub, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(app.loginLimiter.Handler).Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.With(authMiddleware.Authenticate).Post("/logout", authHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Get("/tasks", taskHandler.ListTasks)
			r.Post("/tasks", taskHandler.CreateTask)
			r.Get("/tasks/stream", taskHandler.StreamChanges)
			r.Get("/tasks/{id}", taskHandler.GetTask)
		})
	})

	r.Method(http.MethodGet, "/health", api.NewHealthHandler(app.healthChecks(), healthCheckTimeout))
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	dashboard, err := web.New(
		app.taskService,
		app.authenticator,
		authMiddleware,
		app.loginLimiter,
		web.Options{
			CookieName:    app.config.Auth.SessionCookie,
			SecureCookies: app.config.Auth.SecureCookies,
		},
		app.logger,
	)
	if err != nil {
		return nil, err
	}
	r.Mount("/", dashboard.Routes())

	return r, nil
}

// healthChecks probes the services the configured backend depends on.
func (app *application) healthChecks() map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{
		"hosted": app.backend.client.Health,
	}
	if app.backend.db != nil {
		checks["database"] = func(ctx context.Context) error {
			return app.backend.db.PingContext(ctx)
		}
	}
	return checks
}
