package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/akawula/fourkeys/fourkeys"
)

// TrackedRepository is a repository reported on by the cronjob, with its
// detection settings.
type TrackedRepository struct {
	ID         int64                     `json:"id"`
	Owner      string                    `json:"owner"`
	Name       string                    `json:"name"`
	Deployment fourkeys.DeploymentConfig `json:"deployment"`
	Failure    fourkeys.FailureConfig    `json:"failure"`
	CreatedAt  time.Time                 `json:"createdAt"`
}

func (t TrackedRepository) Repository() fourkeys.Repository {
	return fourkeys.Repository{Owner: t.Owner, Name: t.Name}
}

var trackedColumns = []string{
	"id", "owner", "name",
	"deployment_method", "workflow_name", "workflow_file", "tag_prefix", "tag_pattern",
	"issue_labels", "pr_labels", "pr_branch_pattern", "detect_workflow_failures",
	"created_at",
}

func scanTracked(row pgx.Row) (TrackedRepository, error) {
	var (
		t      TrackedRepository
		method string
	)
	err := row.Scan(
		&t.ID, &t.Owner, &t.Name,
		&method, &t.Deployment.WorkflowName, &t.Deployment.WorkflowFile, &t.Deployment.TagPrefix, &t.Deployment.TagPattern,
		&t.Failure.IssueLabels, &t.Failure.PRLabels, &t.Failure.PRBranchPattern, &t.Failure.DetectWorkflowFailures,
		&t.CreatedAt,
	)
	t.Deployment.Method = fourkeys.DeploymentMethod(method)
	return t, err
}

// ListTrackedRepositories returns every tracked repository ordered by owner
// and name.
func (p *Postgres) ListTrackedRepositories(ctx context.Context) ([]TrackedRepository, error) {
	query, args, err := p.sb.
		Select(trackedColumns...).
		From("tracked_repositories").
		OrderBy("owner ASC", "name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildQuery, err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		p.logger.ErrorContext(ctx, "can't list tracked repositories", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	defer rows.Close()

	repos := []TrackedRepository{}
	for rows.Next() {
		t, err := scanTracked(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQuery, err)
		}
		repos = append(repos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return repos, nil
}

// GetTrackedRepository returns ErrNotFound when repo is not tracked.
func (p *Postgres) GetTrackedRepository(ctx context.Context, repo fourkeys.Repository) (TrackedRepository, error) {
	query, args, err := p.sb.
		Select(trackedColumns...).
		From("tracked_repositories").
		Where(squirrel.Eq{"owner": repo.Owner, "name": repo.Name}).
		ToSql()
	if err != nil {
		return TrackedRepository{}, fmt.Errorf("%w: %v", ErrBuildQuery, err)
	}

	t, err := scanTracked(p.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return TrackedRepository{}, fmt.Errorf("repository %s: %w", repo, ErrNotFound)
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "can't fetch tracked repository", "repository", repo.String(), "error", err)
		return TrackedRepository{}, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return t, nil
}

// UpsertTrackedRepository inserts t or replaces the settings of the existing
// row for the same owner and name.
func (p *Postgres) UpsertTrackedRepository(ctx context.Context, t TrackedRepository) (TrackedRepository, error) {
	if err := t.Deployment.Validate(); err != nil {
		return TrackedRepository{}, err
	}
	if err := t.Failure.Validate(); err != nil {
		return TrackedRepository{}, err
	}
	issueLabels, prLabels := t.Failure.IssueLabels, t.Failure.PRLabels
	if issueLabels == nil {
		issueLabels = []string{}
	}
	if prLabels == nil {
		prLabels = []string{}
	}

	query, args, err := p.sb.
		Insert("tracked_repositories").
		Columns(trackedColumns[1:]...).
		Values(
			t.Owner, t.Name,
			string(t.Deployment.Method), t.Deployment.WorkflowName, t.Deployment.WorkflowFile, t.Deployment.TagPrefix, t.Deployment.TagPattern,
			issueLabels, prLabels, t.Failure.PRBranchPattern, t.Failure.DetectWorkflowFailures,
			p.now().UTC(),
		).
		Suffix(`ON CONFLICT (owner, name) DO UPDATE SET
			deployment_method = EXCLUDED.deployment_method,
			workflow_name = EXCLUDED.workflow_name,
			workflow_file = EXCLUDED.workflow_file,
			tag_prefix = EXCLUDED.tag_prefix,
			tag_pattern = EXCLUDED.tag_pattern,
			issue_labels = EXCLUDED.issue_labels,
			pr_labels = EXCLUDED.pr_labels,
			pr_branch_pattern = EXCLUDED.pr_branch_pattern,
			detect_workflow_failures = EXCLUDED.detect_workflow_failures
		RETURNING ` + strings.Join(trackedColumns, ", ")).
		ToSql()
	if err != nil {
		return TrackedRepository{}, fmt.Errorf("%w: %v", ErrBuildQuery, err)
	}

	saved, err := scanTracked(p.pool.QueryRow(ctx, query, args...))
	if err != nil {
		p.logger.ErrorContext(ctx, "can't save tracked repository", "repository", t.Repository().String(), "error", err)
		return TrackedRepository{}, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return saved, nil
}
