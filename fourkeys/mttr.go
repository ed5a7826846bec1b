package fourkeys

import (
	"context"
	"slices"
	"time"

	"github.com/akawula/fourkeys/internal/timeutils"
)

// MTTRIncident is an incident with a detected/resolved pair. Exactly one of
// IssueNumber and PRNumber is set.
type MTTRIncident struct {
	IssueNumber int       `json:"issueNumber,omitempty"`
	PRNumber    int       `json:"prNumber,omitempty"`
	Title       string    `json:"title"`
	DetectedAt  time.Time `json:"detectedAt"`
	ResolvedAt  time.Time `json:"resolvedAt"`
	MTTRHours   float64   `json:"mttrHours"`
}

type MTTRResult struct {
	Repository       string         `json:"repository"`
	Period           Period         `json:"period"`
	DateRange        DateRange      `json:"dateRange"`
	AverageMTTRHours float64        `json:"averageMTTRHours"`
	MedianMTTRHours  float64        `json:"medianMTTRHours"`
	Incidents        []MTTRIncident `json:"incidents"`
}

// MTTR measures how long incident issues stayed open and how long hotfix PRs
// took to merge. Workflow failures have no resolution time and are ignored.
func (s *Service) MTTR(ctx context.Context, repo Repository, period Period, cfg FailureConfig) (res *MTTRResult, err error) {
	done := s.track(MetricMTTR)
	defer func() { done(err) }()

	r, err := s.Resolve(period)
	if err != nil {
		return nil, err
	}
	return s.mttr(ctx, repo, period, r, cfg)
}

func (s *Service) mttr(ctx context.Context, repo Repository, period Period, r DateRange, cfg FailureConfig) (*MTTRResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s.logger.Info("Calculating MTTR", "repository", repo.String(), "period", period)

	incidents := []MTTRIncident{}

	if cfg.detectsIncidentIssues() {
		issues, err := s.incidentIssues(ctx, repo, r, cfg)
		if err != nil {
			return nil, err
		}
		for _, issue := range issues {
			incidents = append(incidents, MTTRIncident{
				IssueNumber: issue.Number,
				Title:       issue.Title,
				DetectedAt:  issue.CreatedAt,
				ResolvedAt:  *issue.ClosedAt,
				MTTRHours:   timeutils.HoursBetween(issue.CreatedAt, *issue.ClosedAt),
			})
		}
	}

	if cfg.detectsHotfixPRs() {
		prs, err := s.hotfixPullRequests(ctx, repo, r, cfg)
		if err != nil {
			return nil, err
		}
		for _, pr := range prs {
			incidents = append(incidents, MTTRIncident{
				PRNumber:   pr.Number,
				Title:      pr.Title,
				DetectedAt: pr.CreatedAt,
				ResolvedAt: *pr.MergedAt,
				MTTRHours:  timeutils.HoursBetween(pr.CreatedAt, *pr.MergedAt),
			})
		}
	}

	// Negative durations are kept here, unlike lead time samples.
	hours := make([]float64, len(incidents))
	for i := range incidents {
		hours[i] = incidents[i].MTTRHours
		incidents[i].MTTRHours = round2(incidents[i].MTTRHours)
	}
	slices.SortStableFunc(incidents, func(a, b MTTRIncident) int { return b.DetectedAt.Compare(a.DetectedAt) })

	res := &MTTRResult{
		Repository:       repo.String(),
		Period:           period,
		DateRange:        r,
		AverageMTTRHours: round2(Mean(hours)),
		MedianMTTRHours:  round2(Median(hours)),
		Incidents:        incidents,
	}
	s.logger.Info("MTTR calculated", "repository", repo.String(), "incidents", len(incidents), "average_hours", res.AverageMTTRHours)
	return res, nil
}
