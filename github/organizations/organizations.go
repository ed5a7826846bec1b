package organizations

import (
	"context"
	"fmt"

	"github.com/akawula/fourkeys/github/client"
	"github.com/shurcooL/githubv4"
)

// Get fetches the logins of every organization the authenticated viewer
// belongs to.
func Get(ctx context.Context, ghClient client.GitHubV4Client) ([]string, error) {
	var orgQuery struct {
		Viewer struct {
			Organizations struct {
				Nodes []struct {
					Login githubv4.String
				}
				PageInfo client.PageInfo
			} `graphql:"organizations(first: 100, after: $after)"`
		}
	}

	variables := map[string]interface{}{"after": (*githubv4.String)(nil)}
	results := []string{}
	for {
		if err := ghClient.Query(ctx, &orgQuery, variables); err != nil {
			return nil, fmt.Errorf("listing organizations: %w", err)
		}
		for _, login := range orgQuery.Viewer.Organizations.Nodes {
			results = append(results, string(login.Login))
		}
		if !orgQuery.Viewer.Organizations.PageInfo.HasNextPage {
			break
		}
		variables["after"] = orgQuery.Viewer.Organizations.PageInfo.NextCursor()
	}

	return results, nil
}
