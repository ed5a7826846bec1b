package pullrequests

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akawula/fourkeys/github/client"
	"github.com/shurcooL/githubv4"
)

type PullRequest struct {
	Number      githubv4.Int
	Title       githubv4.String
	IsDraft     githubv4.Boolean
	HeadRefName githubv4.String
	CreatedAt   githubv4.DateTime
	UpdatedAt   githubv4.DateTime
	MergedAt    *githubv4.DateTime
	Labels      struct {
		Nodes []struct {
			Name githubv4.String
		}
	} `graphql:"labels(first: 20)"`
}

// LabelNames flattens the label connection.
func (pr PullRequest) LabelNames() []string {
	names := make([]string, 0, len(pr.Labels.Nodes))
	for _, l := range pr.Labels.Nodes {
		names = append(names, string(l.Name))
	}
	return names
}

// Merged returns pull requests merged within [since, until]. Zero bounds are
// open. Paging stops at the first page ending with a pull request last
// updated before since: merging updates a pull request, so nothing older can
// have been merged inside the window.
func Merged(ctx context.Context, c client.GitHubV4Client, owner, repo string, since, until time.Time, logger *slog.Logger) ([]PullRequest, error) {
	prs, err := list(ctx, c, owner, repo, []githubv4.PullRequestState{githubv4.PullRequestStateMerged}, since, logger)
	if err != nil {
		return nil, fmt.Errorf("listing merged pull requests of %s/%s: %w", owner, repo, err)
	}

	results := []PullRequest{}
	for _, pr := range prs {
		if pr.MergedAt == nil {
			continue
		}
		merged := pr.MergedAt.Time
		if (!since.IsZero() && merged.Before(since)) || (!until.IsZero() && merged.After(until)) {
			continue
		}
		results = append(results, pr)
	}
	return results, nil
}

// Closed returns closed and merged pull requests updated at or after
// updatedSince. A zero updatedSince lists the whole history.
func Closed(ctx context.Context, c client.GitHubV4Client, owner, repo string, updatedSince time.Time, logger *slog.Logger) ([]PullRequest, error) {
	states := []githubv4.PullRequestState{githubv4.PullRequestStateClosed, githubv4.PullRequestStateMerged}
	prs, err := list(ctx, c, owner, repo, states, updatedSince, logger)
	if err != nil {
		return nil, fmt.Errorf("listing closed pull requests of %s/%s: %w", owner, repo, err)
	}

	results := []PullRequest{}
	for _, pr := range prs {
		if !updatedSince.IsZero() && checkDates(updatedSince, pr.UpdatedAt) {
			continue
		}
		results = append(results, pr)
	}
	return results, nil
}

func list(ctx context.Context, c client.GitHubV4Client, owner, repo string, states []githubv4.PullRequestState, stopBefore time.Time, logger *slog.Logger) ([]PullRequest, error) {
	var q struct {
		Repository struct {
			PullRequests struct {
				Nodes    []PullRequest
				PageInfo client.PageInfo
			} `graphql:"pullRequests(first: 50, states: $states, orderBy: {field: UPDATED_AT, direction: DESC}, after: $after)"`
		} `graphql:"repository(name: $name, owner: $login)"`
	}

	variables := map[string]interface{}{
		"login":  githubv4.String(owner),
		"name":   githubv4.String(repo),
		"states": states,
		"after":  (*githubv4.String)(nil),
	}
	logger.Debug("Will do the pull request query with params", "variables", variables)
	results := []PullRequest{}
	for {
		if err := client.QueryWithRetry(ctx, c, &q, variables, client.DefaultQueryRetries, logger); err != nil {
			return nil, err
		}
		nodes := q.Repository.PullRequests.Nodes
		results = append(results, nodes...)
		older := !stopBefore.IsZero() && len(nodes) > 0 && checkDates(stopBefore, nodes[len(nodes)-1].UpdatedAt)
		if older || !bool(q.Repository.PullRequests.PageInfo.HasNextPage) {
			break
		}
		variables["after"] = q.Repository.PullRequests.PageInfo.NextCursor()
	}

	return results, nil
}

// checkDates reports whether ghDate is before since.
func checkDates(since time.Time, ghDate githubv4.DateTime) bool {
	return ghDate.Time.Before(since)
}
