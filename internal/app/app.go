// Package app wires configuration into the GitHub clients and the four keys
// service shared by every executable.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/go-github/v39/github"
	"github.com/shurcooL/githubv4"

	"github.com/akawula/fourkeys/fourkeys"
	"github.com/akawula/fourkeys/github/activity"
	"github.com/akawula/fourkeys/github/client"
	"github.com/akawula/fourkeys/internal/config"
	"github.com/akawula/fourkeys/internal/metrics"
	"github.com/akawula/fourkeys/params"
)

type GitHub struct {
	V4       *githubv4.Client
	REST     *github.Client
	Provider *activity.Provider
}

// NewGitHub authenticates against GitHub with a token or as a GitHub App and
// counts every response in the request metrics.
func NewGitHub(ctx context.Context, cfg config.GitHubConfig, logger *slog.Logger) (*GitHub, error) {
	ccfg, err := cfg.Client()
	if err != nil {
		return nil, err
	}
	hc, err := client.NewHTTPClient(ctx, ccfg, logger, client.WithResponseHook(metrics.ObserveGitHubResponse))
	if err != nil {
		return nil, fmt.Errorf("github client: %w", err)
	}
	rest, err := client.NewRESTClient(hc, ccfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("github rest client: %w", err)
	}
	v4 := client.NewV4Client(hc, ccfg.BaseURL)
	return &GitHub{
		V4:       v4,
		REST:     rest,
		Provider: activity.New(v4, rest, logger),
	}, nil
}

// NewService builds the calculator with the configured zone, tag concurrency
// and Prometheus recorder.
func NewService(provider fourkeys.ActivityProvider, cfg config.Config, logger *slog.Logger) *fourkeys.Service {
	return fourkeys.NewService(provider, logger,
		fourkeys.WithLocation(cfg.Location()),
		fourkeys.WithTagConcurrency(cfg.Defaults.TagConcurrency),
		fourkeys.WithRecorder(metrics.Recorder{}),
	)
}

// Defaults are the configured fallbacks for request parameters.
func Defaults(cfg config.Config) params.Defaults {
	return params.Defaults{
		Period:     cfg.Defaults.Period,
		Deployment: cfg.Defaults.Deployment,
		Failure:    cfg.Defaults.Failure,
	}
}
