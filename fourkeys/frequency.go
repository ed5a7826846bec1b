package fourkeys

import (
	"context"
	"time"
)

type DeploymentFrequencyResult struct {
	Repository        string      `json:"repository"`
	Period            Period      `json:"period"`
	DateRange         DateRange   `json:"dateRange"`
	TotalDeployments  int         `json:"totalDeployments"`
	DeploymentsPerDay float64     `json:"deploymentsPerDay"`
	DeploymentDates   []time.Time `json:"deploymentDates"`
}

// Rate is the unrounded deployments per day. Tiers are classified on it so
// that exactly one deployment per 30 days stays Medium.
func (d *DeploymentFrequencyResult) Rate() float64 {
	days := d.DateRange.Days()
	if days <= 0 {
		return 0
	}
	return float64(d.TotalDeployments) / float64(days)
}

// DeploymentFrequency counts deployments over period and divides by the
// number of calendar days in the window.
func (s *Service) DeploymentFrequency(ctx context.Context, repo Repository, period Period, cfg DeploymentConfig) (res *DeploymentFrequencyResult, err error) {
	done := s.track(MetricDeploymentFrequency)
	defer func() { done(err) }()

	r, err := s.Resolve(period)
	if err != nil {
		return nil, err
	}
	return s.deploymentFrequency(ctx, repo, period, r, cfg)
}

func (s *Service) deploymentFrequency(ctx context.Context, repo Repository, period Period, r DateRange, cfg DeploymentConfig) (*DeploymentFrequencyResult, error) {
	s.logger.Info("Calculating deployment frequency", "repository", repo.String(), "period", period, "method", cfg.Method)

	events, err := s.DetectDeployments(ctx, repo, r, cfg)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, len(events))
	for i, e := range events {
		dates[i] = e.At
	}

	res := &DeploymentFrequencyResult{
		Repository:       repo.String(),
		Period:           period,
		DateRange:        r,
		TotalDeployments: len(events),
		DeploymentDates:  dates,
	}
	res.DeploymentsPerDay = Round(res.Rate(), 4)

	s.logger.Info("Deployment frequency calculated", "repository", repo.String(), "deployments", len(events), "days", r.Days(), "per_day", res.DeploymentsPerDay)
	return res, nil
}
