package fourkeys

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DeploymentEvent is one production deployment. Ref names its source (tag,
// release tag or run) for display only.
type DeploymentEvent struct {
	At  time.Time `json:"at"`
	Ref string    `json:"ref,omitempty"`
}

// DetectDeployments returns the deployments inside r found by cfg.Method,
// oldest first.
func (s *Service) DetectDeployments(ctx context.Context, repo Repository, r DateRange, cfg DeploymentConfig) ([]DeploymentEvent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		events []DeploymentEvent
		err    error
	)
	switch cfg.Method {
	case DeploymentMethodRelease:
		events, err = s.releaseDeployments(ctx, repo, r)
	case DeploymentMethodTag:
		events, err = s.tagDeployments(ctx, repo, r, cfg)
	case DeploymentMethodWorkflow:
		events, err = s.workflowDeployments(ctx, repo, r, cfg)
	}
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(events, func(a, b DeploymentEvent) int { return a.At.Compare(b.At) })
	s.logger.Debug("Detected deployments", "repository", repo.String(), "method", cfg.Method, "count", len(events))
	return events, nil
}

func (s *Service) releaseDeployments(ctx context.Context, repo Repository, r DateRange) ([]DeploymentEvent, error) {
	releases, err := s.provider.ListReleases(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, upstreamError("list releases", repo, err)
	}

	events := []DeploymentEvent{}
	for _, rel := range releases {
		if rel.Draft || rel.Prerelease || rel.PublishedAt == nil {
			continue
		}
		if r.Contains(*rel.PublishedAt) {
			events = append(events, DeploymentEvent{At: *rel.PublishedAt, Ref: rel.TagName})
		}
	}
	return events, nil
}

func (s *Service) tagDeployments(ctx context.Context, repo Repository, r DateRange, cfg DeploymentConfig) ([]DeploymentEvent, error) {
	pattern, err := compileOptional("tag pattern", cfg.TagPattern)
	if err != nil {
		return nil, err
	}

	tags, err := s.provider.ListTags(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, upstreamError("list tags", repo, err)
	}
	candidates := filterTags(tags, cfg.TagPrefix, pattern)

	// One slot per candidate keeps the result independent of completion order.
	resolved := make([]*time.Time, len(candidates))
	var g errgroup.Group
	g.SetLimit(s.tagConcurrency)
	for i, tag := range candidates {
		g.Go(func() error {
			at, err := s.provider.ResolveCommitTimestamp(ctx, repo.Owner, repo.Name, tag.CommitRef)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.logger.Warn("Skipping tag, commit could not be resolved",
					"repository", repo.String(), "tag", tag.Name, "commit", tag.CommitRef,
					"error", fmt.Errorf("%w: %w", ErrPartialResolution, err))
				return nil
			}
			resolved[i] = &at
			return nil
		})
	}
	// Unresolved tags are skipped, so only cancellation fails the group.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	events := []DeploymentEvent{}
	for i, at := range resolved {
		if at != nil && r.Contains(*at) {
			events = append(events, DeploymentEvent{At: *at, Ref: candidates[i].Name})
		}
	}
	return events, nil
}

// filterTags applies the prefix first and the pattern second; either may be unset.
func filterTags(tags []Tag, prefix string, pattern *regexp.Regexp) []Tag {
	out := []Tag{}
	for _, tag := range tags {
		if prefix != "" && !strings.HasPrefix(tag.Name, prefix) {
			continue
		}
		if pattern != nil && !pattern.MatchString(tag.Name) {
			continue
		}
		out = append(out, tag)
	}
	return out
}

func (s *Service) workflowDeployments(ctx context.Context, repo Repository, r DateRange, cfg DeploymentConfig) ([]DeploymentEvent, error) {
	workflowID, err := s.resolveWorkflow(ctx, repo, cfg)
	if err != nil {
		return nil, err
	}

	runs, err := s.provider.ListWorkflowRuns(ctx, repo.Owner, repo.Name, RunFilter{
		WorkflowID:       workflowID,
		Status:           RunStatusSuccess,
		CreatedAtOrAfter: r.From,
	})
	if err != nil {
		return nil, upstreamError("list workflow runs", repo, err)
	}

	events := []DeploymentEvent{}
	for _, run := range runs {
		if r.Contains(run.CreatedAt) {
			events = append(events, DeploymentEvent{At: run.CreatedAt, Ref: fmt.Sprintf("Run #%d", run.ID)})
		}
	}
	return events, nil
}

// resolveWorkflow returns 0 when neither a workflow name nor file is set.
func (s *Service) resolveWorkflow(ctx context.Context, repo Repository, cfg DeploymentConfig) (int64, error) {
	if cfg.WorkflowName == "" && cfg.WorkflowFile == "" {
		return 0, nil
	}

	workflows, err := s.provider.ListWorkflows(ctx, repo.Owner, repo.Name)
	if err != nil {
		return 0, upstreamError("list workflows", repo, err)
	}
	for _, w := range workflows {
		byName := cfg.WorkflowName != "" && w.Name == cfg.WorkflowName
		byFile := cfg.WorkflowFile != "" && strings.Contains(w.Path, cfg.WorkflowFile)
		if byName || byFile {
			s.logger.Debug("Resolved workflow", "repository", repo.String(), "workflow", w.Name, "id", w.ID)
			return w.ID, nil
		}
	}

	want := cfg.WorkflowName
	if want == "" {
		want = cfg.WorkflowFile
	}
	return 0, fmt.Errorf("%w: %q in %s", ErrWorkflowNotFound, want, repo)
}
