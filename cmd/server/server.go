package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/akawula/fourkeys/cmd/server/auth"
	"github.com/akawula/fourkeys/internal/app"
	"github.com/akawula/fourkeys/internal/config"
	"github.com/akawula/fourkeys/internal/logging"
	"github.com/akawula/fourkeys/params"
	"github.com/akawula/fourkeys/store"
)

const dbConnectRetries = 5

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := new(slog.LevelVar)
	logger := logging.New(os.Stdout, level)
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("can't load configuration", "error", err)
		os.Exit(1)
	}
	level.Set(logging.Level(cfg.Logging.Level))

	if err := run(ctx, cfg, level, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, level *slog.LevelVar, logger *slog.Logger) error {
	dsn := cfg.Database.DSN()
	if dsn == "" {
		return errors.New("database is not configured: set DATABASE_URL or POSTGRES_HOST")
	}
	if err := store.Migrate(dsn, cfg.Database.MigrationsPath, logger); err != nil {
		return err
	}
	db, err := store.Connect(ctx, dsn, cfg.Database.MaxConnections, dbConnectRetries, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	authn, err := auth.New(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	gh, err := app.NewGitHub(ctx, cfg.GitHub, logger)
	if err != nil {
		return err
	}

	var defaults atomic.Pointer[params.Defaults]
	d := app.Defaults(cfg)
	defaults.Store(&d)

	go func() {
		err := config.Watch(ctx, config.Path(), func(c config.Config) {
			level.Set(logging.Level(c.Logging.Level))
			d := app.Defaults(c)
			defaults.Store(&d)
		})
		if err != nil {
			logger.Warn("config reload disabled", "error", err)
		}
	}()

	srv := &http.Server{
		Addr: ":" + cfg.HTTP.Port,
		Handler: newRouter(routerDeps{
			db:       db,
			calc:     app.NewService(gh.Provider, cfg, logger),
			auth:     authn,
			defaults: func() params.Defaults { return *defaults.Load() },
			timeout:  cfg.HTTP.WriteTimeout,
			logger:   logger,
		}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.HTTP.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
