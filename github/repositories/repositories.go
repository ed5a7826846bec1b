package repositories

import (
	"context"
	"fmt"

	"github.com/akawula/fourkeys/github/client"
	"github.com/akawula/fourkeys/github/organizations"
	"github.com/shurcooL/githubv4"
)

type Repository struct {
	Name  githubv4.String
	Owner struct {
		Login githubv4.String
	}
}

// FullName returns owner/name.
func (r Repository) FullName() string {
	return string(r.Owner.Login) + "/" + string(r.Name)
}

// Get fetches the non-archived repositories of every organization the
// viewer belongs to.
func Get(ctx context.Context, ghClient client.GitHubV4Client) ([]Repository, error) {
	orgs, err := organizations.Get(ctx, ghClient)
	if err != nil {
		return nil, err
	}

	r := []Repository{}
	for _, org := range orgs {
		repos, err := List(ctx, ghClient, org)
		if err != nil {
			return nil, err
		}
		r = append(r, repos...)
	}

	return r, nil
}

// List fetches the non-archived repositories of org.
func List(ctx context.Context, ghClient client.GitHubV4Client, org string) ([]Repository, error) {
	var repoQuery struct {
		Organization struct {
			Repositories struct {
				Nodes    []Repository
				PageInfo client.PageInfo
			} `graphql:"repositories(first: 100, isArchived: false, after: $after)"`
		} `graphql:"organization(login: $organization)"`
	}

	variables := map[string]interface{}{"organization": githubv4.String(org), "after": (*githubv4.String)(nil)}
	results := []Repository{}
	for {
		if err := ghClient.Query(ctx, &repoQuery, variables); err != nil {
			return nil, fmt.Errorf("listing repositories of %s: %w", org, err)
		}
		results = append(results, repoQuery.Organization.Repositories.Nodes...)
		if !repoQuery.Organization.Repositories.PageInfo.HasNextPage {
			break
		}
		variables["after"] = repoQuery.Organization.Repositories.PageInfo.NextCursor()
	}

	return results, nil
}
