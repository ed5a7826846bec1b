package fourkeys

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type Summary struct {
	Repository          string                     `json:"repository"`
	Period              Period                     `json:"period"`
	DateRange           DateRange                  `json:"dateRange"`
	DeploymentFrequency *DeploymentFrequencyResult `json:"deploymentFrequency"`
	LeadTime            *LeadTimeResult            `json:"leadTime"`
	ChangeFailureRate   *ChangeFailureRateResult   `json:"changeFailureRate"`
	MTTR                *MTTRResult                `json:"mttr"`
	Tiers               Tiers                      `json:"tiers"`
	PerformanceLevel    Tier                       `json:"performanceLevel"`
}

// Summary runs the four calculators concurrently over one shared window and
// classifies the results. Any calculator error fails the whole summary.
func (s *Service) Summary(ctx context.Context, repo Repository, period Period, dcfg DeploymentConfig, fcfg FailureConfig) (sum *Summary, err error) {
	done := s.track(MetricSummary)
	defer func() { done(err) }()

	if err := dcfg.Validate(); err != nil {
		return nil, err
	}
	if err := fcfg.Validate(); err != nil {
		return nil, err
	}
	r, err := s.Resolve(period)
	if err != nil {
		return nil, err
	}

	var (
		df   *DeploymentFrequencyResult
		lt   *LeadTimeResult
		cfr  *ChangeFailureRateResult
		mttr *MTTRResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		df, err = s.deploymentFrequency(gctx, repo, period, r, dcfg)
		return err
	})
	g.Go(func() (err error) {
		lt, err = s.leadTime(gctx, repo, period, r)
		return err
	})
	g.Go(func() (err error) {
		cfr, err = s.changeFailureRate(gctx, repo, period, r, dcfg, fcfg.Clone())
		return err
	})
	g.Go(func() (err error) {
		mttr, err = s.mttr(gctx, repo, period, r, fcfg.Clone())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("four keys summary for %s: %w", repo, err)
	}

	tiers := Tiers{
		DeploymentFrequency: ClassifyDeploymentFrequency(df.Rate()),
		LeadTime:            ClassifyLeadTime(lt.AverageLeadTimeHours),
		ChangeFailureRate:   ClassifyChangeFailureRate(cfr.FailureRate),
		MTTR:                ClassifyMTTR(mttr.AverageMTTRHours),
	}
	sum = &Summary{
		Repository:          repo.String(),
		Period:              period,
		DateRange:           r,
		DeploymentFrequency: df,
		LeadTime:            lt,
		ChangeFailureRate:   cfr,
		MTTR:                mttr,
		Tiers:               tiers,
		PerformanceLevel:    tiers.Overall(),
	}
	s.logger.Info("Four keys summary calculated", "repository", repo.String(), "period", period, "performance_level", sum.PerformanceLevel)
	return sum, nil
}
