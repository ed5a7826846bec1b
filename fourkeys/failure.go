package fourkeys

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"time"
)

// FailureType tells which signal produced a FailureIncident.
type FailureType string

const (
	FailureWorkflow      FailureType = "workflow_failure"
	FailureHotfixPR      FailureType = "hotfix_pr"
	FailureIncidentIssue FailureType = "incident_issue"
)

type FailureIncident struct {
	Type       FailureType `json:"type"`
	Identifier string      `json:"identifier"`
	Title      string      `json:"title"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// DetectFailures returns the union of every failure signal enabled in cfg,
// newest first.
func (s *Service) DetectFailures(ctx context.Context, repo Repository, r DateRange, cfg FailureConfig) ([]FailureIncident, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	failures := []FailureIncident{}

	if cfg.detectsHotfixPRs() {
		prs, err := s.hotfixPullRequests(ctx, repo, r, cfg)
		if err != nil {
			return nil, err
		}
		for _, pr := range prs {
			failures = append(failures, FailureIncident{
				Type:       FailureHotfixPR,
				Identifier: fmt.Sprintf("#%d", pr.Number),
				Title:      pr.Title,
				OccurredAt: *pr.MergedAt,
			})
		}
	}

	if cfg.detectsIncidentIssues() {
		issues, err := s.incidentIssues(ctx, repo, r, cfg)
		if err != nil {
			return nil, err
		}
		for _, issue := range issues {
			failures = append(failures, FailureIncident{
				Type:       FailureIncidentIssue,
				Identifier: fmt.Sprintf("#%d", issue.Number),
				Title:      issue.Title,
				OccurredAt: *issue.ClosedAt,
			})
		}
	}

	if cfg.DetectWorkflowFailures {
		runs, err := s.failedRuns(ctx, repo, r)
		if err != nil {
			return nil, err
		}
		for _, run := range runs {
			failures = append(failures, FailureIncident{
				Type:       FailureWorkflow,
				Identifier: fmt.Sprintf("Run #%d", run.ID),
				Title:      fmt.Sprintf("%s - %s", run.Name, run.HeadBranch),
				OccurredAt: run.CreatedAt,
			})
		}
	}

	slices.SortStableFunc(failures, func(a, b FailureIncident) int { return b.OccurredAt.Compare(a.OccurredAt) })
	s.logger.Debug("Detected failures", "repository", repo.String(), "count", len(failures))
	return failures, nil
}

// hotfixMatcher recognises a hotfix PR by label or by source branch.
type hotfixMatcher struct {
	labels labelSet
	branch *regexp.Regexp
}

func newHotfixMatcher(cfg FailureConfig) (*hotfixMatcher, error) {
	branch, err := compileOptional("PR branch pattern", cfg.PRBranchPattern)
	if err != nil {
		return nil, err
	}
	return &hotfixMatcher{labels: newLabelSet(cfg.PRLabels), branch: branch}, nil
}

func (m *hotfixMatcher) matches(pr PullRequest) bool {
	if m.labels.matchesAny(pr.Labels) {
		return true
	}
	return m.branch != nil && m.branch.MatchString(pr.HeadBranch)
}

// hotfixPullRequests returns the merged hotfix PRs whose merge time is in r.
// Every returned PR has a non-nil MergedAt.
func (s *Service) hotfixPullRequests(ctx context.Context, repo Repository, r DateRange, cfg FailureConfig) ([]PullRequest, error) {
	matcher, err := newHotfixMatcher(cfg)
	if err != nil {
		return nil, err
	}

	prs, err := s.provider.ListClosedPullRequests(ctx, repo.Owner, repo.Name, ClosedFilter{UpdatedSince: r.From})
	if err != nil {
		return nil, upstreamError("list closed pull requests", repo, err)
	}

	out := []PullRequest{}
	for _, pr := range prs {
		if pr.MergedAt == nil || !r.Contains(*pr.MergedAt) {
			continue
		}
		if matcher.matches(pr) {
			out = append(out, pr)
		}
	}
	return out, nil
}

// incidentIssues returns closed, labelled issues whose close time is in r.
// Every returned issue has a non-nil ClosedAt.
func (s *Service) incidentIssues(ctx context.Context, repo Repository, r DateRange, cfg FailureConfig) ([]Issue, error) {
	issues, err := s.provider.ListClosedIssues(ctx, repo.Owner, repo.Name, ClosedFilter{UpdatedSince: r.From})
	if err != nil {
		return nil, upstreamError("list closed issues", repo, err)
	}

	labels := newLabelSet(cfg.IssueLabels)
	out := []Issue{}
	for _, issue := range issues {
		if issue.IsPullRequest || issue.ClosedAt == nil || !r.Contains(*issue.ClosedAt) {
			continue
		}
		if labels.matchesAny(issue.Labels) {
			out = append(out, issue)
		}
	}
	return out, nil
}

func (s *Service) failedRuns(ctx context.Context, repo Repository, r DateRange) ([]WorkflowRun, error) {
	runs, err := s.provider.ListWorkflowRuns(ctx, repo.Owner, repo.Name, RunFilter{
		Status:           RunStatusFailure,
		CreatedAtOrAfter: r.From,
	})
	if err != nil {
		return nil, upstreamError("list failed workflow runs", repo, err)
	}

	out := []WorkflowRun{}
	for _, run := range runs {
		if r.Contains(run.CreatedAt) {
			out = append(out, run)
		}
	}
	return out, nil
}
