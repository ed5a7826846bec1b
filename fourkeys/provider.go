package fourkeys

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Repository identifies a repository on the hosting platform.
type Repository struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// ParseRepository parses "owner/name".
func ParseRepository(s string) (Repository, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, fmt.Errorf("%w: repository %q must be owner/name", ErrInvalidConfiguration, s)
	}
	return Repository{Owner: owner, Name: name}, nil
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// Workflow run conclusions used as run filters.
const (
	RunStatusSuccess = "success"
	RunStatusFailure = "failure"
)

// ActivityProvider supplies the raw repository history. Implementations own
// pagination, authentication, retries and HTTP error translation.
type ActivityProvider interface {
	ListReleases(ctx context.Context, owner, repo string) ([]Release, error)
	ListTags(ctx context.Context, owner, repo string) ([]Tag, error)
	// ResolveCommitTimestamp returns the authoring time of commitRef.
	ResolveCommitTimestamp(ctx context.Context, owner, repo, commitRef string) (time.Time, error)
	ListWorkflows(ctx context.Context, owner, repo string) ([]Workflow, error)
	ListWorkflowRuns(ctx context.Context, owner, repo string, filter RunFilter) ([]WorkflowRun, error)
	ListMergedPullRequests(ctx context.Context, owner, repo string, filter MergedFilter) ([]PullRequest, error)
	ListClosedPullRequests(ctx context.Context, owner, repo string, filter ClosedFilter) ([]PullRequest, error)
	ListClosedIssues(ctx context.Context, owner, repo string, filter ClosedFilter) ([]Issue, error)
}

type Release struct {
	TagName     string
	Name        string
	Draft       bool
	Prerelease  bool
	PublishedAt *time.Time
}

type Tag struct {
	Name      string
	CommitRef string
}

type Workflow struct {
	ID   int64
	Name string
	Path string
}

// RunFilter narrows ListWorkflowRuns. Zero values disable a filter.
type RunFilter struct {
	WorkflowID       int64
	Status           string
	CreatedAtOrAfter time.Time
}

type WorkflowRun struct {
	ID         int64
	Name       string
	Conclusion string
	HeadBranch string
	CreatedAt  time.Time
}

// MergedFilter bounds the merge time of ListMergedPullRequests results.
// Zero values are open bounds.
type MergedFilter struct {
	Since time.Time
	Until time.Time
}

// ClosedFilter is a paging hint: a provider may stop listing once items were
// last updated before UpdatedSince. Items closed or merged after UpdatedSince
// must still be returned.
type ClosedFilter struct {
	UpdatedSince time.Time
}

type PullRequest struct {
	Number     int
	Title      string
	Draft      bool
	Labels     []string
	HeadBranch string
	CreatedAt  time.Time
	MergedAt   *time.Time
}

type Issue struct {
	Number        int
	Title         string
	Labels        []string
	IsPullRequest bool
	CreatedAt     time.Time
	ClosedAt      *time.Time
}
