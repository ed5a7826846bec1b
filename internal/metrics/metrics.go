package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/akawula/fourkeys/fourkeys"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	calculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fourkeys_calculations_total",
			Help: "Four keys calculations by metric and outcome.",
		},
		[]string{"metric", "outcome"},
	)

	calculationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fourkeys_calculation_duration_seconds",
			Help:    "Duration of four keys calculations.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"metric"},
	)

	githubRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fourkeys_github_requests_total",
			Help: "GitHub API responses by status code.",
		},
		[]string{"status"},
	)

	tierLevel = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fourkeys_tier",
			Help: "Latest performance tier per repository and metric (0 low .. 3 elite).",
		},
		[]string{"repository", "metric"},
	)
)

// Recorder reports calculations to Prometheus.
type Recorder struct{}

var _ fourkeys.Recorder = Recorder{}

func (Recorder) ObserveCalculation(metric string, elapsed time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	calculationsTotal.WithLabelValues(metric, outcome).Inc()
	calculationDuration.WithLabelValues(metric).Observe(elapsed.Seconds())
}

// ObserveGitHubResponse counts a GitHub API response. It matches the
// signature of client.WithResponseHook.
func ObserveGitHubResponse(status int) {
	githubRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

// SetTiers publishes the tiers of a summary.
func SetTiers(repository string, tiers fourkeys.Tiers) {
	tierLevel.WithLabelValues(repository, fourkeys.MetricDeploymentFrequency).Set(float64(tiers.DeploymentFrequency))
	tierLevel.WithLabelValues(repository, fourkeys.MetricLeadTime).Set(float64(tiers.LeadTime))
	tierLevel.WithLabelValues(repository, fourkeys.MetricChangeFailureRate).Set(float64(tiers.ChangeFailureRate))
	tierLevel.WithLabelValues(repository, fourkeys.MetricMTTR).Set(float64(tiers.MTTR))
}
