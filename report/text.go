package report

import (
	"fmt"

	"github.com/akawula/fourkeys/fourkeys"
)

// SummaryLine renders a summary on one line, for logs and terminals.
func SummaryLine(s *fourkeys.Summary) string {
	return fmt.Sprintf("%s [%s] overall=%s deploys/day=%.2f (%s) lead=%s (%s) cfr=%.2f%% (%s) mttr=%s (%s)",
		s.Repository, s.Period, s.PerformanceLevel,
		s.DeploymentFrequency.DeploymentsPerDay, s.Tiers.DeploymentFrequency,
		Duration(s.LeadTime.AverageLeadTimeHours), s.Tiers.LeadTime,
		s.ChangeFailureRate.FailureRate, s.Tiers.ChangeFailureRate,
		Duration(s.MTTR.AverageMTTRHours), s.Tiers.MTTR,
	)
}
