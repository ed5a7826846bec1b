package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/akawula/fourkeys/fourkeys"
	"github.com/akawula/fourkeys/github/client"
	"github.com/akawula/fourkeys/github/repositories"
	"github.com/akawula/fourkeys/internal/app"
	"github.com/akawula/fourkeys/internal/config"
	"github.com/akawula/fourkeys/internal/logging"
	"github.com/akawula/fourkeys/internal/metrics"
	"github.com/akawula/fourkeys/report"
	"github.com/akawula/fourkeys/slack"
	"github.com/akawula/fourkeys/store"
)

const dbConnectRetries = 5

func debug() slog.Level {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") == "1" {
		level = slog.LevelDebug
	}
	return level
}

func logger() *slog.Logger {
	return logging.New(os.Stdout, debug())
}

type trackedStore interface {
	ListTrackedRepositories(ctx context.Context) ([]store.TrackedRepository, error)
	UpsertTrackedRepository(ctx context.Context, t store.TrackedRepository) (store.TrackedRepository, error)
}

type summarizer interface {
	Summary(ctx context.Context, repo fourkeys.Repository, period fourkeys.Period, dcfg fourkeys.DeploymentConfig, fcfg fourkeys.FailureConfig) (*fourkeys.Summary, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := logger()
	slog.SetDefault(l)

	cfg, err := config.Load()
	if err != nil {
		l.Error("can't load configuration", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()
	if err := store.Migrate(dsn, cfg.Database.MigrationsPath, l); err != nil {
		l.Error("can't migrate database", "error", err)
		os.Exit(1)
	}
	db, err := store.Connect(ctx, dsn, cfg.Database.MaxConnections, dbConnectRetries, l)
	if err != nil {
		l.Error("can't connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	gh, err := app.NewGitHub(ctx, cfg.GitHub, l)
	if err != nil {
		l.Error("can't create GitHub client", "error", err)
		os.Exit(1)
	}

	repos, err := seed(ctx, db, gh.V4, cfg, l)
	if err != nil {
		l.Error("can't load tracked repositories", "error", err)
		os.Exit(1)
	}

	svc := app.NewService(gh.Provider, cfg, l)
	summaries, failed := collect(ctx, svc, repos, cfg.Defaults.Period, l)

	if cfg.Slack.Token == "" {
		l.Info("SLACK_TOKEN not set, skipping digest")
		return
	}
	sc, err := slack.New(ctx, cfg.Slack.Token, cfg.Slack.Channel)
	if err != nil {
		l.Error("can't create slack client", "error", err)
		os.Exit(1)
	}
	if err := sc.Send(ctx, slack.Digest(cfg.Defaults.Period, summaries, failed)); err != nil {
		l.Error("can't post digest to slack", "error", err)
		os.Exit(1)
	}
	l.Info("digest posted", "repositories", len(summaries), "failed", len(failed))
}

// seed returns the tracked repositories. An empty table is first filled with
// the repositories of the configured organization, or of every organization
// the credentials can see, using the configured detection defaults.
func seed(ctx context.Context, db trackedStore, gh client.GitHubV4Client, cfg config.Config, l *slog.Logger) ([]store.TrackedRepository, error) {
	tracked, err := db.ListTrackedRepositories(ctx)
	if err != nil {
		return nil, err
	}
	if len(tracked) > 0 {
		return tracked, nil
	}

	var found []repositories.Repository
	if org := cfg.GitHub.Organization; org != "" {
		found, err = repositories.List(ctx, gh, org)
	} else {
		found, err = repositories.Get(ctx, gh)
	}
	if err != nil {
		return nil, err
	}
	l.Info("seeding tracked repositories", "count", len(found))

	for _, r := range found {
		saved, err := db.UpsertTrackedRepository(ctx, store.TrackedRepository{
			Owner:      string(r.Owner.Login),
			Name:       string(r.Name),
			Deployment: cfg.Defaults.Deployment,
			Failure:    cfg.Defaults.Failure.Clone(),
		})
		if err != nil {
			return nil, fmt.Errorf("tracking %s: %w", r.FullName(), err)
		}
		tracked = append(tracked, saved)
	}
	return tracked, nil
}

// collect computes a summary per repository. A failing repository is logged
// and skipped.
func collect(ctx context.Context, calc summarizer, repos []store.TrackedRepository, period fourkeys.Period, l *slog.Logger) ([]*fourkeys.Summary, []string) {
	var (
		summaries []*fourkeys.Summary
		failed    []string
	)
	max := len(repos)
	for i, t := range repos {
		repo := t.Repository()
		rctx := logging.WithRepository(ctx, repo.String())
		l.InfoContext(rctx, fmt.Sprintf("Computing four keys [%d/%d]", i+1, max))

		sum, err := calc.Summary(rctx, repo, period, t.Deployment, t.Failure)
		if err != nil {
			l.ErrorContext(rctx, "there was an error while computing the summary", "error", err)
			failed = append(failed, repo.String())
			continue
		}
		metrics.SetTiers(sum.Repository, sum.Tiers)
		l.InfoContext(rctx, report.SummaryLine(sum))
		summaries = append(summaries, sum)
	}
	return summaries, failed
}
