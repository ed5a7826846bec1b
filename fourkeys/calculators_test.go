package fourkeys

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDeploymentFrequency(t *testing.T) {
	p := &fakeProvider{releases: []Release{
		{TagName: "v2", PublishedAt: ptr(daysAgo(1))},
		{TagName: "v1", PublishedAt: ptr(daysAgo(6))},
	}}
	rec := &fakeRecorder{}
	s := newTestService(p, WithRecorder(rec))

	res, err := s.DeploymentFrequency(context.Background(), testRepo, PeriodWeek, DeploymentConfig{Method: DeploymentMethodRelease})
	require.NoError(t, err)
	require.Equal(t, "acme/shop", res.Repository)
	require.Equal(t, PeriodWeek, res.Period)
	require.Equal(t, 2, res.TotalDeployments)
	require.Equal(t, 0.25, res.DeploymentsPerDay)
	require.Equal(t, []time.Time{daysAgo(6), daysAgo(1)}, res.DeploymentDates)

	require.Equal(t, []recordedCalculation{{metric: MetricDeploymentFrequency}}, rec.calls)
}

func TestDeploymentFrequency_InvalidPeriod(t *testing.T) {
	rec := &fakeRecorder{}
	s := newTestService(&fakeProvider{}, WithRecorder(rec))
	_, err := s.DeploymentFrequency(context.Background(), testRepo, Period("decade"), DeploymentConfig{Method: DeploymentMethodRelease})
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	require.Len(t, rec.calls, 1)
	require.ErrorIs(t, rec.calls[0].err, ErrInvalidConfiguration)
}

func TestLeadTime(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2024, 6, d, h, 0, 0, 0, time.UTC) }
	p := &fakeProvider{merged: []PullRequest{
		{Number: 1, CreatedAt: day(10, 0), MergedAt: ptr(day(12, 0))},
		{Number: 2, CreatedAt: day(11, 0), MergedAt: ptr(day(13, 0))},
		{Number: 3, CreatedAt: day(14, 0), MergedAt: ptr(day(14, 6))},
		{Number: 4, Title: "clock skew", CreatedAt: day(14, 10), MergedAt: ptr(day(14, 9))},
		{Number: 5, Title: "draft", Draft: true, CreatedAt: day(10, 0), MergedAt: ptr(day(11, 0))},
		{Number: 6, Title: "outside window", CreatedAt: day(1, 0), MergedAt: ptr(day(2, 0))},
		{Number: 7, Title: "unmerged", CreatedAt: day(10, 0)},
	}}
	s := newTestService(p)

	res, err := s.LeadTime(context.Background(), testRepo, PeriodWeek)
	require.NoError(t, err)
	require.Equal(t, 34.0, res.AverageLeadTimeHours)
	require.Equal(t, 48.0, res.MedianLeadTimeHours)
	require.Equal(t, 48.0, res.P95LeadTimeHours)
	require.Equal(t, 3, res.SampleCount)

	var numbers []int
	for _, s := range res.Samples {
		numbers = append(numbers, s.Number)
	}
	require.Equal(t, []int{3, 2, 1}, numbers, "newest merge first, negative sample dropped")
}

func TestLeadTime_TruncatesSamplesNotStatistics(t *testing.T) {
	var prs []PullRequest
	for i := 0; i < 25; i++ {
		merged := testNow.Add(-time.Duration(i) * time.Hour)
		prs = append(prs, PullRequest{
			Number:    i,
			CreatedAt: merged.Add(-time.Duration(i+1) * time.Hour),
			MergedAt:  ptr(merged),
		})
	}
	s := newTestService(&fakeProvider{merged: prs})

	res, err := s.LeadTime(context.Background(), testRepo, PeriodWeek)
	require.NoError(t, err)
	require.Equal(t, 25, res.SampleCount)
	require.Len(t, res.Samples, 20)
	require.Equal(t, 0, res.Samples[0].Number)
	require.Equal(t, 13.0, res.AverageLeadTimeHours, "mean of 1..25, not of the first 20")
	require.Equal(t, 13.0, res.MedianLeadTimeHours)
}

func TestLeadTime_FetchFailure(t *testing.T) {
	s := newTestService(&fakeProvider{mergedErr: errors.New("timeout")})
	_, err := s.LeadTime(context.Background(), testRepo, PeriodMonth)
	require.ErrorIs(t, err, ErrUpstreamFetch)
}

func TestChangeFailureRate(t *testing.T) {
	releases := []Release{
		{TagName: "v2", PublishedAt: ptr(daysAgo(1))},
		{TagName: "v1", PublishedAt: ptr(daysAgo(3))},
	}
	hotfix := PullRequest{Number: 9, Title: "fix checkout", Labels: []string{"hotfix"}, CreatedAt: daysAgo(2), MergedAt: ptr(daysAgo(2))}

	testCases := []struct {
		name     string
		releases []Release
		total    int
		failed   int
		rate     float64
	}{
		{"Two deployments one failure", releases, 2, 1, 50},
		{"No deployments", nil, 0, 1, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := &fakeProvider{releases: tc.releases, closedPRs: []PullRequest{hotfix}}
			res, err := newTestService(p).ChangeFailureRate(context.Background(), testRepo, PeriodWeek,
				DeploymentConfig{Method: DeploymentMethodRelease},
				FailureConfig{PRLabels: []string{"hotfix"}})
			require.NoError(t, err)
			require.Equal(t, tc.total, res.TotalDeployments)
			require.Equal(t, tc.failed, res.FailedDeployments)
			require.Equal(t, tc.rate, res.FailureRate)
			require.Len(t, res.Failures, tc.failed)
		})
	}
}

func TestChangeFailureRate_WorkflowNotFound(t *testing.T) {
	p := &fakeProvider{workflows: []Workflow{{ID: 1, Name: "CI", Path: "ci.yml"}}}
	_, err := newTestService(p).ChangeFailureRate(context.Background(), testRepo, PeriodWeek,
		DeploymentConfig{Method: DeploymentMethodWorkflow, WorkflowFile: "deploy.yml"},
		FailureConfig{})
	require.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestMTTR(t *testing.T) {
	p := &fakeProvider{
		issues: []Issue{
			{Number: 1, Title: "db down", Labels: []string{"incident"}, CreatedAt: daysAgo(3), ClosedAt: ptr(daysAgo(3).Add(2 * time.Hour))},
		},
		closedPRs: []PullRequest{
			{Number: 2, Title: "revert", HeadBranch: "hotfix/revert", CreatedAt: daysAgo(1), MergedAt: ptr(daysAgo(1).Add(6 * time.Hour))},
		},
		runs: []WorkflowRun{{ID: 3, Conclusion: RunStatusFailure, CreatedAt: daysAgo(1)}},
	}
	s := newTestService(p)

	res, err := s.MTTR(context.Background(), testRepo, PeriodWeek, FailureConfig{
		IssueLabels:            []string{"incident"},
		PRBranchPattern:        `^hotfix/`,
		DetectWorkflowFailures: true,
	})
	require.NoError(t, err)
	require.Equal(t, 4.0, res.AverageMTTRHours)
	require.Equal(t, 4.0, res.MedianMTTRHours)
	require.Len(t, res.Incidents, 2, "workflow failures carry no resolution time")

	require.Equal(t, 2, res.Incidents[0].PRNumber, "most recently detected first")
	require.Zero(t, res.Incidents[0].IssueNumber)
	require.Equal(t, 6.0, res.Incidents[0].MTTRHours)
	require.Equal(t, 1, res.Incidents[1].IssueNumber)
	require.Zero(t, res.Incidents[1].PRNumber)
	require.Empty(t, p.runFilters)
}

func TestMTTR_KeepsNegativeDurations(t *testing.T) {
	p := &fakeProvider{issues: []Issue{
		{Number: 1, Labels: []string{"incident"}, CreatedAt: daysAgo(1), ClosedAt: ptr(daysAgo(1).Add(-2 * time.Hour))},
		{Number: 2, Labels: []string{"incident"}, CreatedAt: daysAgo(2), ClosedAt: ptr(daysAgo(2).Add(4 * time.Hour))},
	}}
	res, err := newTestService(p).MTTR(context.Background(), testRepo, PeriodWeek, FailureConfig{IssueLabels: []string{"incident"}})
	require.NoError(t, err)
	require.Len(t, res.Incidents, 2)
	require.Equal(t, 1.0, res.AverageMTTRHours)
}

func TestMTTR_NoSignals(t *testing.T) {
	res, err := newTestService(&fakeProvider{}).MTTR(context.Background(), testRepo, PeriodDay, FailureConfig{})
	require.NoError(t, err)
	require.Empty(t, res.Incidents)
	require.Zero(t, res.AverageMTTRHours)
	require.Zero(t, res.MedianMTTRHours)
}
