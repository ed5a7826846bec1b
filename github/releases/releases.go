package releases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/akawula/fourkeys/github/client"
	"github.com/shurcooL/githubv4"
)

type Release struct {
	TagName      githubv4.String
	Name         githubv4.String
	IsDraft      githubv4.Boolean
	IsPrerelease githubv4.Boolean
	PublishedAt  *githubv4.DateTime
}

// List fetches every release of owner/repo, newest first.
func List(ctx context.Context, c client.GitHubV4Client, owner, repo string, logger *slog.Logger) ([]Release, error) {
	var q struct {
		Repository struct {
			Releases struct {
				Nodes    []Release
				PageInfo client.PageInfo
			} `graphql:"releases(first: 100, orderBy: {field: CREATED_AT, direction: DESC}, after: $after)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	variables := map[string]interface{}{"owner": githubv4.String(owner), "name": githubv4.String(repo), "after": (*githubv4.String)(nil)}
	logger.Debug("Will do the releases query with params", "variables", variables)
	results := []Release{}
	for {
		if err := client.QueryWithRetry(ctx, c, &q, variables, client.DefaultQueryRetries, logger); err != nil {
			return nil, fmt.Errorf("listing releases of %s/%s: %w", owner, repo, err)
		}
		results = append(results, q.Repository.Releases.Nodes...)
		if !q.Repository.Releases.PageInfo.HasNextPage {
			break
		}
		variables["after"] = q.Repository.Releases.PageInfo.NextCursor()
	}

	return results, nil
}
