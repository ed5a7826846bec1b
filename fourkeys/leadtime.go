package fourkeys

import (
	"context"
	"slices"
	"time"

	"github.com/akawula/fourkeys/internal/timeutils"
)

// maxLeadTimeSamples caps the samples returned for display; statistics always
// use every sample.
const maxLeadTimeSamples = 20

type LeadTimeSample struct {
	Number        int       `json:"prNumber"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"createdAt"`
	ResolvedAt    time.Time `json:"mergedAt"`
	DurationHours float64   `json:"leadTimeHours"`
}

type LeadTimeResult struct {
	Repository           string           `json:"repository"`
	Period               Period           `json:"period"`
	DateRange            DateRange        `json:"dateRange"`
	AverageLeadTimeHours float64          `json:"averageLeadTimeHours"`
	MedianLeadTimeHours  float64          `json:"medianLeadTimeHours"`
	P95LeadTimeHours     float64          `json:"p95LeadTimeHours"`
	SampleCount          int              `json:"sampleCount"`
	Samples              []LeadTimeSample `json:"samples"`
}

// LeadTime measures creation-to-merge time of non-draft PRs merged in period.
func (s *Service) LeadTime(ctx context.Context, repo Repository, period Period) (res *LeadTimeResult, err error) {
	done := s.track(MetricLeadTime)
	defer func() { done(err) }()

	r, err := s.Resolve(period)
	if err != nil {
		return nil, err
	}
	return s.leadTime(ctx, repo, period, r)
}

func (s *Service) leadTime(ctx context.Context, repo Repository, period Period, r DateRange) (*LeadTimeResult, error) {
	s.logger.Info("Calculating lead time", "repository", repo.String(), "period", period)

	prs, err := s.provider.ListMergedPullRequests(ctx, repo.Owner, repo.Name, MergedFilter{Since: r.From, Until: r.To})
	if err != nil {
		return nil, upstreamError("list merged pull requests", repo, err)
	}

	samples := []LeadTimeSample{}
	for _, pr := range prs {
		if pr.Draft || pr.MergedAt == nil || !r.Contains(*pr.MergedAt) {
			continue
		}
		if pr.MergedAt.Before(pr.CreatedAt) {
			s.logger.Warn("Discarding pull request merged before it was created",
				"repository", repo.String(), "pr", pr.Number, "created_at", pr.CreatedAt, "merged_at", *pr.MergedAt)
			continue
		}
		samples = append(samples, LeadTimeSample{
			Number:        pr.Number,
			Title:         pr.Title,
			CreatedAt:     pr.CreatedAt,
			ResolvedAt:    *pr.MergedAt,
			DurationHours: timeutils.HoursBetween(pr.CreatedAt, *pr.MergedAt),
		})
	}

	slices.SortStableFunc(samples, func(a, b LeadTimeSample) int { return b.ResolvedAt.Compare(a.ResolvedAt) })

	hours := make([]float64, len(samples))
	for i := range samples {
		hours[i] = samples[i].DurationHours
		samples[i].DurationHours = round2(samples[i].DurationHours)
	}

	res := &LeadTimeResult{
		Repository:           repo.String(),
		Period:               period,
		DateRange:            r,
		AverageLeadTimeHours: round2(Mean(hours)),
		MedianLeadTimeHours:  round2(Median(hours)),
		P95LeadTimeHours:     round2(Percentile(hours, 95)),
		SampleCount:          len(samples),
		Samples:              samples[:min(len(samples), maxLeadTimeSamples)],
	}

	s.logger.Info("Lead time calculated", "repository", repo.String(), "samples", len(samples), "average_hours", res.AverageLeadTimeHours)
	return res, nil
}
