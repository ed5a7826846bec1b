package fourkeys

import (
	"log/slog"
	"time"
)

// Metric names reported to a Recorder.
const (
	MetricDeploymentFrequency = "deployment_frequency"
	MetricLeadTime            = "lead_time"
	MetricChangeFailureRate   = "change_failure_rate"
	MetricMTTR                = "mttr"
	MetricSummary             = "summary"
)

const defaultTagConcurrency = 8

// Recorder observes every top-level calculation.
type Recorder interface {
	ObserveCalculation(metric string, elapsed time.Duration, err error)
}

// Service computes the four keys for any repository the provider can read.
// It keeps no state between calls and is safe for concurrent use.
type Service struct {
	provider       ActivityProvider
	logger         *slog.Logger
	now            func() time.Time
	location       *time.Location
	tagConcurrency int
	recorder       Recorder
}

type Option func(*Service)

// WithClock replaces time.Now as the anchor for period resolution.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone whose midnight bounds a period.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithTagConcurrency bounds how many tag commits are resolved at once.
func WithTagConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.tagConcurrency = n
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

func NewService(provider ActivityProvider, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		provider:       provider,
		logger:         logger,
		now:            time.Now,
		location:       time.Local,
		tagConcurrency: defaultTagConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve anchors p to the service clock.
func (s *Service) Resolve(p Period) (DateRange, error) {
	return ResolvePeriod(p, s.now().In(s.location))
}

// track starts timing metric; the returned func reports the outcome.
func (s *Service) track(metric string) func(error) {
	start := time.Now()
	return func(err error) {
		if s.recorder != nil {
			s.recorder.ObserveCalculation(metric, time.Since(start), err)
		}
	}
}
