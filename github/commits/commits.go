package commits

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-github/v39/github"
)

// AuthoredAt returns the author date of the commit ref resolves to.
func AuthoredAt(ctx context.Context, rest *github.Client, owner, repo, ref string) (time.Time, error) {
	commit, _, err := rest.Repositories.GetCommit(ctx, owner, repo, ref, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch commit %s of %s/%s: %w", ref, owner, repo, err)
	}

	author := commit.GetCommit().GetAuthor()
	if author == nil || author.Date == nil {
		return time.Time{}, fmt.Errorf("commit %s of %s/%s has no author date", ref, owner, repo)
	}
	return author.GetDate(), nil
}
