package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akawula/fourkeys/cmd/server/auth"
	"github.com/akawula/fourkeys/cmd/server/handlers"
	"github.com/akawula/fourkeys/internal/logging"
	"github.com/akawula/fourkeys/internal/metrics"
	"github.com/akawula/fourkeys/params"
)

type database interface {
	handlers.DBStore
	handlers.TrackedStore
	handlers.Pinger
}

type routerDeps struct {
	db       database
	calc     handlers.Calculator
	auth     *auth.Authenticator
	defaults func() params.Defaults
	timeout  time.Duration
	logger   *slog.Logger
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(d.logger))
	r.Use(logging.Middleware(d.logger))
	r.Use(metrics.Middleware)

	r.Get("/livez", handlers.LivezHandler)
	r.Get("/readyz", handlers.ReadyzHandler(d.db, d.logger))
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/login", handlers.LoginHandler(d.db, d.auth, d.logger))

	r.Group(func(r chi.Router) {
		r.Use(d.auth.Middleware)
		if d.timeout > 0 {
			r.Use(chimw.Timeout(d.timeout))
		}

		r.Route("/repos/{owner}/{repo}", handlers.NewFourKeysHandler(d.calc, d.defaults, d.logger).Register)

		r.Get("/tracked", handlers.ListTrackedHandler(d.db, d.logger))
		r.Get("/tracked/{owner}/{repo}", handlers.GetTrackedHandler(d.db, d.logger))
		r.Put("/tracked/{owner}/{repo}", handlers.PutTrackedHandler(d.db, d.logger))
	})

	return r
}
