package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akawula/fourkeys/fourkeys"
)

// newIntegrationStore connects to test_$POSTGRES_DB and migrates it. The test
// is skipped when the POSTGRES_* variables are not set.
func newIntegrationStore(t *testing.T) *Postgres {
	t.Helper()
	user := os.Getenv("POSTGRES_USER")
	password := os.Getenv("POSTGRES_PASSWORD")
	db := os.Getenv("POSTGRES_DB")
	host := os.Getenv("POSTGRES_SERVICE_HOST")
	port := os.Getenv("POSTGRES_SERVICE_PORT")
	if user == "" || password == "" || db == "" || host == "" || port == "" {
		t.Skip("POSTGRES_* environment variables not set")
	}
	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/test_%s?sslmode=disable", user, password, host, port, db)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	require.NoError(t, Migrate(dbURL, "../migrations", logger))
	s, err := Connect(context.Background(), dbURL, 2, 1, logger)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	_, err = s.pool.Exec(context.Background(), "TRUNCATE users, tracked_repositories RESTART IDENTITY")
	require.NoError(t, err)
	return s
}

func TestIntegrationUsers(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "alice", "hashed")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "alice", "other")
	require.ErrorIs(t, err, ErrUserExists)

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "hashed", got.HashedPassword)
}

func TestIntegrationTrackedRepositories(t *testing.T) {
	s := newIntegrationStore(t)
	ctx := context.Background()
	repo := TrackedRepository{
		Owner:      "acme",
		Name:       "api",
		Deployment: fourkeys.DeploymentConfig{Method: fourkeys.DeploymentMethodRelease},
		Failure:    fourkeys.FailureConfig{IssueLabels: []string{"incident"}},
	}

	first, err := s.UpsertTrackedRepository(ctx, repo)
	require.NoError(t, err)

	repo.Deployment = fourkeys.DeploymentConfig{Method: fourkeys.DeploymentMethodTag, TagPrefix: "v"}
	second, err := s.UpsertTrackedRepository(ctx, repo)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	got, err := s.GetTrackedRepository(ctx, repo.Repository())
	require.NoError(t, err)
	require.Equal(t, fourkeys.DeploymentMethodTag, got.Deployment.Method)
	require.Equal(t, []string{"incident"}, got.Failure.IssueLabels)

	all, err := s.ListTrackedRepositories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}
