package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/go-github/v39/github"
	"github.com/shurcooL/githubv4"

	"github.com/akawula/fourkeys/fourkeys"
	"github.com/akawula/fourkeys/github/client"
	"github.com/akawula/fourkeys/github/commits"
	"github.com/akawula/fourkeys/github/issues"
	"github.com/akawula/fourkeys/github/pullrequests"
	"github.com/akawula/fourkeys/github/releases"
	"github.com/akawula/fourkeys/github/workflows"
)

// Provider reads repository history from GitHub: releases, tags, pull
// requests and issues over GraphQL, commits and Actions runs over REST.
type Provider struct {
	v4     client.GitHubV4Client
	rest   *github.Client
	logger *slog.Logger
}

var _ fourkeys.ActivityProvider = (*Provider)(nil)

func New(v4 client.GitHubV4Client, rest *github.Client, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{v4: v4, rest: rest, logger: logger}
}

func (p *Provider) ListReleases(ctx context.Context, owner, repo string) ([]fourkeys.Release, error) {
	nodes, err := releases.List(ctx, p.v4, owner, repo, p.logger)
	if err != nil {
		return nil, err
	}
	out := make([]fourkeys.Release, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, fourkeys.Release{
			TagName:     string(n.TagName),
			Name:        string(n.Name),
			Draft:       bool(n.IsDraft),
			Prerelease:  bool(n.IsPrerelease),
			PublishedAt: timePtr(n.PublishedAt),
		})
	}
	return out, nil
}

func (p *Provider) ListTags(ctx context.Context, owner, repo string) ([]fourkeys.Tag, error) {
	nodes, err := releases.Tags(ctx, p.v4, owner, repo, p.logger)
	if err != nil {
		return nil, err
	}
	out := make([]fourkeys.Tag, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, fourkeys.Tag{Name: string(n.Name), CommitRef: n.CommitRef()})
	}
	return out, nil
}

func (p *Provider) ResolveCommitTimestamp(ctx context.Context, owner, repo, commitRef string) (time.Time, error) {
	return commits.AuthoredAt(ctx, p.rest, owner, repo, commitRef)
}

func (p *Provider) ListWorkflows(ctx context.Context, owner, repo string) ([]fourkeys.Workflow, error) {
	wfs, err := workflows.List(ctx, p.rest, owner, repo)
	if err != nil {
		return nil, err
	}
	out := make([]fourkeys.Workflow, 0, len(wfs))
	for _, wf := range wfs {
		out = append(out, fourkeys.Workflow{ID: wf.GetID(), Name: wf.GetName(), Path: wf.GetPath()})
	}
	return out, nil
}

func (p *Provider) ListWorkflowRuns(ctx context.Context, owner, repo string, filter fourkeys.RunFilter) ([]fourkeys.WorkflowRun, error) {
	runs, err := workflows.Runs(ctx, p.rest, owner, repo, workflows.RunFilter{
		WorkflowID:       filter.WorkflowID,
		Status:           filter.Status,
		CreatedAtOrAfter: filter.CreatedAtOrAfter,
	}, p.logger)
	if err != nil {
		return nil, err
	}
	out := make([]fourkeys.WorkflowRun, 0, len(runs))
	for _, r := range runs {
		out = append(out, fourkeys.WorkflowRun{
			ID:         r.GetID(),
			Name:       r.GetName(),
			Conclusion: r.GetConclusion(),
			HeadBranch: r.GetHeadBranch(),
			CreatedAt:  r.GetCreatedAt().Time,
		})
	}
	return out, nil
}

func (p *Provider) ListMergedPullRequests(ctx context.Context, owner, repo string, filter fourkeys.MergedFilter) ([]fourkeys.PullRequest, error) {
	prs, err := pullrequests.Merged(ctx, p.v4, owner, repo, filter.Since, filter.Until, p.logger)
	if err != nil {
		return nil, err
	}
	return convertPullRequests(prs), nil
}

func (p *Provider) ListClosedPullRequests(ctx context.Context, owner, repo string, filter fourkeys.ClosedFilter) ([]fourkeys.PullRequest, error) {
	prs, err := pullrequests.Closed(ctx, p.v4, owner, repo, filter.UpdatedSince, p.logger)
	if err != nil {
		return nil, err
	}
	return convertPullRequests(prs), nil
}

func (p *Provider) ListClosedIssues(ctx context.Context, owner, repo string, filter fourkeys.ClosedFilter) ([]fourkeys.Issue, error) {
	nodes, err := issues.Closed(ctx, p.v4, owner, repo, filter.UpdatedSince, p.logger)
	if err != nil {
		return nil, err
	}
	out := make([]fourkeys.Issue, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, fourkeys.Issue{
			Number:    int(n.Number),
			Title:     string(n.Title),
			Labels:    n.LabelNames(),
			CreatedAt: n.CreatedAt.Time,
			ClosedAt:  timePtr(n.ClosedAt),
		})
	}
	return out, nil
}

func convertPullRequests(prs []pullrequests.PullRequest) []fourkeys.PullRequest {
	out := make([]fourkeys.PullRequest, 0, len(prs))
	for _, pr := range prs {
		out = append(out, fourkeys.PullRequest{
			Number:     int(pr.Number),
			Title:      string(pr.Title),
			Draft:      bool(pr.IsDraft),
			Labels:     pr.LabelNames(),
			HeadBranch: string(pr.HeadRefName),
			CreatedAt:  pr.CreatedAt.Time,
			MergedAt:   timePtr(pr.MergedAt),
		})
	}
	return out
}

func timePtr(dt *githubv4.DateTime) *time.Time {
	if dt == nil {
		return nil
	}
	t := dt.Time
	return &t
}
