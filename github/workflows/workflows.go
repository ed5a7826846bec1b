package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/go-github/v39/github"
)

const perPage = 100

// List returns every GitHub Actions workflow defined in owner/repo.
func List(ctx context.Context, rest *github.Client, owner, repo string) ([]*github.Workflow, error) {
	opts := &github.ListOptions{PerPage: perPage}
	var all []*github.Workflow
	for {
		page, resp, err := rest.Actions.ListWorkflows(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list workflows of %s/%s: %w", owner, repo, err)
		}
		all = append(all, page.Workflows...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// RunFilter narrows Runs. Zero values disable a filter.
type RunFilter struct {
	WorkflowID int64
	// Status is a run status or conclusion, e.g. "success" or "failure".
	Status           string
	CreatedAtOrAfter time.Time
}

// Runs lists workflow runs, newest first. The API has no creation filter in
// this client version, so the lower bound is applied here and paging stops
// at the first run created before it.
func Runs(ctx context.Context, rest *github.Client, owner, repo string, filter RunFilter, logger *slog.Logger) ([]*github.WorkflowRun, error) {
	opts := &github.ListWorkflowRunsOptions{
		Status:      filter.Status,
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	logger.Debug("Listing workflow runs", "owner", owner, "repo", repo, "workflow_id", filter.WorkflowID, "status", filter.Status)

	var all []*github.WorkflowRun
	for {
		var (
			page *github.WorkflowRuns
			resp *github.Response
			err  error
		)
		if filter.WorkflowID != 0 {
			page, resp, err = rest.Actions.ListWorkflowRunsByID(ctx, owner, repo, filter.WorkflowID, opts)
		} else {
			page, resp, err = rest.Actions.ListRepositoryWorkflowRuns(ctx, owner, repo, opts)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list workflow runs of %s/%s: %w", owner, repo, err)
		}

		older := false
		for _, run := range page.WorkflowRuns {
			if !filter.CreatedAtOrAfter.IsZero() && run.GetCreatedAt().Time.Before(filter.CreatedAtOrAfter) {
				older = true
				continue
			}
			all = append(all, run)
		}

		if older || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}
