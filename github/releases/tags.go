package releases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/akawula/fourkeys/github/client"
	"github.com/shurcooL/githubv4"
)

// Tag is a refs/tags/* ref. Target is the tagged object: a commit for
// lightweight tags, a Tag object for annotated ones.
type Tag struct {
	Name   githubv4.String
	Target struct {
		Oid         githubv4.GitObjectID
		AnnotatedTo struct {
			Target struct {
				Oid githubv4.GitObjectID
			}
		} `graphql:"... on Tag"`
	}
}

// CommitRef returns the commit the tag points at, peeling annotated tags.
func (t Tag) CommitRef() string {
	if oid := t.Target.AnnotatedTo.Target.Oid; oid != "" {
		return string(oid)
	}
	return string(t.Target.Oid)
}

// Tags fetches every tag of owner/repo.
func Tags(ctx context.Context, c client.GitHubV4Client, owner, repo string, logger *slog.Logger) ([]Tag, error) {
	var q struct {
		Repository struct {
			Refs struct {
				Nodes    []Tag
				PageInfo client.PageInfo
			} `graphql:"refs(refPrefix: \"refs/tags/\", first: 100, orderBy: {field: TAG_COMMIT_DATE, direction: DESC}, after: $after)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}

	variables := map[string]interface{}{"owner": githubv4.String(owner), "name": githubv4.String(repo), "after": (*githubv4.String)(nil)}
	logger.Debug("Will do the tags query with params", "variables", variables)
	results := []Tag{}
	for {
		if err := client.QueryWithRetry(ctx, c, &q, variables, client.DefaultQueryRetries, logger); err != nil {
			return nil, fmt.Errorf("listing tags of %s/%s: %w", owner, repo, err)
		}
		results = append(results, q.Repository.Refs.Nodes...)
		if !q.Repository.Refs.PageInfo.HasNextPage {
			break
		}
		variables["after"] = q.Repository.Refs.PageInfo.NextCursor()
	}

	return results, nil
}
