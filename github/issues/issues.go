package issues

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akawula/fourkeys/github/client"
	"github.com/shurcooL/githubv4"
)

// Issue is a closed issue. The GraphQL issues connection never contains
// pull requests.
type Issue struct {
	Number    githubv4.Int
	Title     githubv4.String
	CreatedAt githubv4.DateTime
	UpdatedAt githubv4.DateTime
	ClosedAt  *githubv4.DateTime
	Labels    struct {
		Nodes []struct {
			Name githubv4.String
		}
	} `graphql:"labels(first: 20)"`
}

func (i Issue) LabelNames() []string {
	names := make([]string, 0, len(i.Labels.Nodes))
	for _, l := range i.Labels.Nodes {
		names = append(names, string(l.Name))
	}
	return names
}

// Closed lists closed issues, most recently updated first, stopping once a
// page ends with an issue updated before updatedSince.
func Closed(ctx context.Context, c client.GitHubV4Client, owner, repo string, updatedSince time.Time, logger *slog.Logger) ([]Issue, error) {
	var q struct {
		Repository struct {
			Issues struct {
				Nodes    []Issue
				PageInfo client.PageInfo
			} `graphql:"issues(first: 50, states: CLOSED, orderBy: {field: UPDATED_AT, direction: DESC}, after: $after)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	variables := map[string]interface{}{"owner": githubv4.String(owner), "name": githubv4.String(repo), "after": (*githubv4.String)(nil)}
	logger.Debug("Will do the closed issues query with params", "variables", variables)
	results := []Issue{}
	for {
		if err := client.QueryWithRetry(ctx, c, &q, variables, client.DefaultQueryRetries, logger); err != nil {
			return nil, fmt.Errorf("listing closed issues of %s/%s: %w", owner, repo, err)
		}

		done := !q.Repository.Issues.PageInfo.HasNextPage
		for _, issue := range q.Repository.Issues.Nodes {
			if !updatedSince.IsZero() && issue.UpdatedAt.Before(updatedSince) {
				done = true
				continue
			}
			results = append(results, issue)
		}
		if done {
			break
		}
		variables["after"] = q.Repository.Issues.PageInfo.NextCursor()
	}

	return results, nil
}
