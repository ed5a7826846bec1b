package fourkeys

import (
	"context"
)

type ChangeFailureRateResult struct {
	Repository        string            `json:"repository"`
	Period            Period            `json:"period"`
	DateRange         DateRange         `json:"dateRange"`
	TotalDeployments  int               `json:"totalDeployments"`
	FailedDeployments int               `json:"failedDeployments"`
	FailureRate       float64           `json:"failureRate"`
	Failures          []FailureIncident `json:"failures"`
}

// ChangeFailureRate relates detected failures to deployments in period.
// With no deployments the rate is 0 whatever the failure count.
func (s *Service) ChangeFailureRate(ctx context.Context, repo Repository, period Period, dcfg DeploymentConfig, fcfg FailureConfig) (res *ChangeFailureRateResult, err error) {
	done := s.track(MetricChangeFailureRate)
	defer func() { done(err) }()

	r, err := s.Resolve(period)
	if err != nil {
		return nil, err
	}
	return s.changeFailureRate(ctx, repo, period, r, dcfg, fcfg)
}

func (s *Service) changeFailureRate(ctx context.Context, repo Repository, period Period, r DateRange, dcfg DeploymentConfig, fcfg FailureConfig) (*ChangeFailureRateResult, error) {
	s.logger.Info("Calculating change failure rate", "repository", repo.String(), "period", period)

	deployments, err := s.DetectDeployments(ctx, repo, r, dcfg)
	if err != nil {
		return nil, err
	}
	failures, err := s.DetectFailures(ctx, repo, r, fcfg)
	if err != nil {
		return nil, err
	}

	var rate float64
	if len(deployments) > 0 {
		rate = float64(len(failures)) / float64(len(deployments)) * 100
	}

	s.logger.Info("Change failure rate calculated", "repository", repo.String(), "failed", len(failures), "deployments", len(deployments), "rate", rate)
	return &ChangeFailureRateResult{
		Repository:        repo.String(),
		Period:            period,
		DateRange:         r,
		TotalDeployments:  len(deployments),
		FailedDeployments: len(failures),
		FailureRate:       round2(rate),
		Failures:          failures,
	}, nil
}
