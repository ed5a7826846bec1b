package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v39/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// ErrMissingCredentials is returned when neither a token nor a complete
// GitHub App configuration is available.
var ErrMissingCredentials = errors.New("github credentials missing")

// installationTokenLeeway refreshes installation tokens before they expire.
const installationTokenLeeway = 5 * time.Minute

// Config describes how to reach and authenticate to GitHub.
type Config struct {
	// Token is a personal access token. It wins over App credentials.
	Token string

	AppID          int64
	InstallationID int64
	// PrivateKey is the PEM encoded App key.
	PrivateKey []byte

	// BaseURL points at a GitHub Enterprise Server, e.g.
	// https://ghe.example.com/api/v3. Empty means github.com.
	BaseURL string

	// RequestDelay is the minimum spacing between two requests.
	RequestDelay time.Duration
}

func (c Config) usesApp() bool {
	return c.AppID != 0 && c.InstallationID != 0 && len(c.PrivateKey) > 0
}

// Validate reports whether c carries usable credentials.
func (c Config) Validate() error {
	if c.Token != "" || c.usesApp() {
		return nil
	}
	if c.AppID != 0 || c.InstallationID != 0 {
		return fmt.Errorf("%w: GitHub App needs app id, installation id and private key", ErrMissingCredentials)
	}
	return fmt.Errorf("%w: set GITHUB_TOKEN or GitHub App credentials", ErrMissingCredentials)
}

// NewHTTPClient returns an authenticated client whose transport is rate
// limit aware. App installation tokens are fetched lazily and reused until
// shortly before they expire.
func NewHTTPClient(ctx context.Context, cfg Config, logger *slog.Logger, opts ...TransportOption) (*http.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts = append([]TransportOption{WithRequestDelay(cfg.RequestDelay)}, opts...)
	transport := NewRateLimitTransport(http.DefaultTransport, logger, opts...)
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: transport, Timeout: 30 * time.Second})

	if cfg.Token != "" {
		logger.Debug("Using GitHub token authentication")
		return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})), nil
	}

	src, err := newAppTokenSource(cfg, transport)
	if err != nil {
		return nil, err
	}
	logger.Debug("Using GitHub App authentication", "app_id", cfg.AppID, "installation_id", cfg.InstallationID)
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSourceWithExpiry(nil, src, installationTokenLeeway)), nil
}

// NewV4Client returns a GraphQL client for github.com or an enterprise host.
func NewV4Client(httpClient *http.Client, baseURL string) *githubv4.Client {
	if isPublicGitHub(baseURL) {
		return githubv4.NewClient(httpClient)
	}
	return githubv4.NewEnterpriseClient(graphQLURL(baseURL), httpClient)
}

// NewRESTClient returns a REST client for github.com or an enterprise host.
func NewRESTClient(httpClient *http.Client, baseURL string) (*github.Client, error) {
	if isPublicGitHub(baseURL) {
		return github.NewClient(httpClient), nil
	}
	c, err := github.NewEnterpriseClient(baseURL, baseURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("creating enterprise client for %s: %w", baseURL, err)
	}
	return c, nil
}

func isPublicGitHub(baseURL string) bool {
	return baseURL == "" || strings.Contains(baseURL, "api.github.com")
}

// graphQLURL maps a REST base URL to the GraphQL endpoint of the same host.
func graphQLURL(baseURL string) string {
	base := strings.TrimSuffix(baseURL, "/")
	base = strings.TrimSuffix(base, "/api/v3")
	return base + "/api/graphql"
}
