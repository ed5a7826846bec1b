package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/akawula/fourkeys/fourkeys"
)

// maxListed caps the samples and incidents listed under a single metric.
const maxListed = 10

var periodLabels = map[fourkeys.Period]string{
	fourkeys.PeriodDay:     "Today",
	fourkeys.PeriodWeek:    "Last 7 days",
	fourkeys.PeriodMonth:   "Last 30 days",
	fourkeys.PeriodQuarter: "Last 3 months",
	fourkeys.PeriodYear:    "Last year",
}

// PeriodLabel is the human name of p.
func PeriodLabel(p fourkeys.Period) string {
	if l, ok := periodLabels[p]; ok {
		return l
	}
	return string(p)
}

// TierLabel renders a tier with its badge.
func TierLabel(t fourkeys.Tier) string {
	switch t {
	case fourkeys.TierElite:
		return "⭐ Elite"
	case fourkeys.TierHigh:
		return "🟢 High"
	case fourkeys.TierMedium:
		return "🟡 Medium"
	}
	return "🔴 Low"
}

// Duration renders fractional hours as "Xd Yh", or "Yh" under a day. Partial
// hours are truncated.
func Duration(hours float64) string {
	sign := ""
	if hours < 0 {
		sign = "-"
		hours = -hours
	}
	days := int(math.Floor(hours / 24))
	h := int(math.Floor(math.Mod(hours, 24)))
	if days > 0 {
		return fmt.Sprintf("%s%dd %dh", sign, days, h)
	}
	return fmt.Sprintf("%s%dh", sign, h)
}

func hoursLabel(hours float64) string {
	return fmt.Sprintf("%s (%.2f hours)", Duration(hours), hours)
}

const legend = `**DORA performance levels**

**Deployment frequency**
- Elite: multiple times per day
- High: at least once per week
- Medium: at least once per month
- Low: less than once per month

**Lead time for changes**
- Elite: less than one day
- High: less than one week
- Medium: less than one month
- Low: one month or more

**Change failure rate**
- Elite: 0-15%
- High: 16-30%
- Medium: 31-45%
- Low: 46% or more

**Time to restore service**
- Elite: less than one hour
- High: less than one day
- Medium: less than one week
- Low: one week or more
`

// SummaryMarkdown renders all four keys with their tiers and the level legend.
func SummaryMarkdown(s *fourkeys.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Four Keys summary - %s\n\n", s.Repository)
	fmt.Fprintf(&b, "**Period**: %s (%s)\n", PeriodLabel(s.Period), rangeLabel(s.DateRange))
	fmt.Fprintf(&b, "**Overall performance**: %s\n\n---\n\n", TierLabel(s.PerformanceLevel))

	df := s.DeploymentFrequency
	b.WriteString("## 1. Deployment frequency\n")
	fmt.Fprintf(&b, "- **Deployments per day**: %.2f\n", df.DeploymentsPerDay)
	fmt.Fprintf(&b, "- **Total deployments**: %d\n", df.TotalDeployments)
	fmt.Fprintf(&b, "- **Level**: %s\n\n", TierLabel(s.Tiers.DeploymentFrequency))

	lt := s.LeadTime
	b.WriteString("## 2. Lead time for changes\n")
	fmt.Fprintf(&b, "- **Average**: %s\n", hoursLabel(lt.AverageLeadTimeHours))
	fmt.Fprintf(&b, "- **Median**: %s\n", Duration(lt.MedianLeadTimeHours))
	fmt.Fprintf(&b, "- **Samples**: %d PRs\n", lt.SampleCount)
	fmt.Fprintf(&b, "- **Level**: %s\n\n", TierLabel(s.Tiers.LeadTime))

	cfr := s.ChangeFailureRate
	b.WriteString("## 3. Change failure rate\n")
	fmt.Fprintf(&b, "- **Failure rate**: %.2f%%\n", cfr.FailureRate)
	fmt.Fprintf(&b, "- **Failures**: %d\n", cfr.FailedDeployments)
	fmt.Fprintf(&b, "- **Total deployments**: %d\n", cfr.TotalDeployments)
	fmt.Fprintf(&b, "- **Level**: %s\n\n", TierLabel(s.Tiers.ChangeFailureRate))

	m := s.MTTR
	b.WriteString("## 4. Time to restore service\n")
	fmt.Fprintf(&b, "- **Average**: %s\n", hoursLabel(m.AverageMTTRHours))
	fmt.Fprintf(&b, "- **Incidents**: %d\n", len(m.Incidents))
	fmt.Fprintf(&b, "- **Level**: %s\n\n---\n\n", TierLabel(s.Tiers.MTTR))

	b.WriteString(legend)
	return b.String()
}

func DeploymentFrequencyMarkdown(r *fourkeys.DeploymentFrequencyResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Deployment frequency - %s\n\n", r.Repository)
	fmt.Fprintf(&b, "**Period**: %s (%s)\n\n", PeriodLabel(r.Period), rangeLabel(r.DateRange))
	fmt.Fprintf(&b, "- **Total deployments**: %d\n", r.TotalDeployments)
	fmt.Fprintf(&b, "- **Deployments per day**: %.4f\n", r.DeploymentsPerDay)
	fmt.Fprintf(&b, "- **Level**: %s\n", TierLabel(fourkeys.ClassifyDeploymentFrequency(r.Rate())))
	if len(r.DeploymentDates) == 0 {
		b.WriteString("\n### No deployments found\n")
		return b.String()
	}
	b.WriteString("\n### Latest deployments\n")
	for i, d := range r.DeploymentDates {
		if i == maxListed {
			break
		}
		fmt.Fprintf(&b, "- %s\n", d.UTC().Format("2006-01-02 15:04 MST"))
	}
	return b.String()
}

func LeadTimeMarkdown(r *fourkeys.LeadTimeResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Lead time for changes - %s\n\n", r.Repository)
	fmt.Fprintf(&b, "**Period**: %s (%s)\n\n", PeriodLabel(r.Period), rangeLabel(r.DateRange))
	fmt.Fprintf(&b, "- **Average**: %s\n", hoursLabel(r.AverageLeadTimeHours))
	fmt.Fprintf(&b, "- **Median**: %s\n", hoursLabel(r.MedianLeadTimeHours))
	fmt.Fprintf(&b, "- **95th percentile**: %s\n", hoursLabel(r.P95LeadTimeHours))
	fmt.Fprintf(&b, "- **Samples**: %d PRs\n", r.SampleCount)
	fmt.Fprintf(&b, "- **Level**: %s\n", TierLabel(fourkeys.ClassifyLeadTime(r.AverageLeadTimeHours)))
	if len(r.Samples) == 0 {
		b.WriteString("\n### No merged pull requests found\n")
		return b.String()
	}
	b.WriteString("\n### Latest pull requests\n")
	for i, s := range r.Samples {
		if i == maxListed {
			break
		}
		fmt.Fprintf(&b, "- PR #%d: %s (%s)\n", s.Number, s.Title, Duration(s.DurationHours))
	}
	return b.String()
}

func ChangeFailureRateMarkdown(r *fourkeys.ChangeFailureRateResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Change failure rate - %s\n\n", r.Repository)
	fmt.Fprintf(&b, "**Period**: %s (%s)\n\n", PeriodLabel(r.Period), rangeLabel(r.DateRange))
	fmt.Fprintf(&b, "- **Failure rate**: %.2f%%\n", r.FailureRate)
	fmt.Fprintf(&b, "- **Failures**: %d\n", r.FailedDeployments)
	fmt.Fprintf(&b, "- **Total deployments**: %d\n", r.TotalDeployments)
	fmt.Fprintf(&b, "- **Level**: %s\n", TierLabel(fourkeys.ClassifyChangeFailureRate(r.FailureRate)))
	if len(r.Failures) == 0 {
		b.WriteString("\n### No failures detected\n")
		return b.String()
	}
	b.WriteString("\n### Latest failures\n")
	for i, f := range r.Failures {
		if i == maxListed {
			break
		}
		fmt.Fprintf(&b, "- [%s] %s: %s (%s)\n", f.Type, f.Identifier, f.Title, f.OccurredAt.UTC().Format("2006-01-02"))
	}
	return b.String()
}

func MTTRMarkdown(r *fourkeys.MTTRResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Time to restore service - %s\n\n", r.Repository)
	fmt.Fprintf(&b, "**Period**: %s (%s)\n\n", PeriodLabel(r.Period), rangeLabel(r.DateRange))
	fmt.Fprintf(&b, "- **Average**: %s\n", hoursLabel(r.AverageMTTRHours))
	fmt.Fprintf(&b, "- **Median**: %s\n", hoursLabel(r.MedianMTTRHours))
	fmt.Fprintf(&b, "- **Incidents**: %d\n", len(r.Incidents))
	fmt.Fprintf(&b, "- **Level**: %s\n", TierLabel(fourkeys.ClassifyMTTR(r.AverageMTTRHours)))
	if len(r.Incidents) == 0 {
		b.WriteString("\n### No incidents found\n")
		return b.String()
	}
	b.WriteString("\n### Latest incidents\n")
	for i, in := range r.Incidents {
		if i == maxListed {
			break
		}
		fmt.Fprintf(&b, "- %s: %s (%s)\n", incidentRef(in), in.Title, Duration(in.MTTRHours))
	}
	return b.String()
}

func incidentRef(in fourkeys.MTTRIncident) string {
	if in.IssueNumber != 0 {
		return fmt.Sprintf("Issue #%d", in.IssueNumber)
	}
	return fmt.Sprintf("PR #%d", in.PRNumber)
}

func rangeLabel(r fourkeys.DateRange) string {
	return r.From.Format("2006-01-02") + " to " + r.To.Format("2006-01-02")
}
