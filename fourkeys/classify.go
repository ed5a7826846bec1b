package fourkeys

import (
	"fmt"
)

// Tier is a DORA performance level. Higher is better.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
	TierElite
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	case TierElite:
		return "elite"
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	for _, c := range []Tier{TierLow, TierMedium, TierHigh, TierElite} {
		if c.String() == string(b) {
			*t = c
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", b)
}

// ClassifyDeploymentFrequency: daily or more is Elite, weekly High, monthly Medium.
func ClassifyDeploymentFrequency(perDay float64) Tier {
	switch {
	case perDay >= 1:
		return TierElite
	case perDay >= 1.0/7:
		return TierHigh
	case perDay >= 1.0/30:
		return TierMedium
	}
	return TierLow
}

// ClassifyLeadTime: under a day is Elite, under a week High, under 30 days Medium.
func ClassifyLeadTime(hours float64) Tier {
	switch {
	case hours < 24:
		return TierElite
	case hours < 24*7:
		return TierHigh
	case hours < 24*30:
		return TierMedium
	}
	return TierLow
}

// ClassifyChangeFailureRate takes a percentage.
func ClassifyChangeFailureRate(rate float64) Tier {
	switch {
	case rate <= 15:
		return TierElite
	case rate <= 30:
		return TierHigh
	case rate <= 45:
		return TierMedium
	}
	return TierLow
}

// ClassifyMTTR: under an hour is Elite, under a day High, under a week Medium.
func ClassifyMTTR(hours float64) Tier {
	switch {
	case hours < 1:
		return TierElite
	case hours < 24:
		return TierHigh
	case hours < 24*7:
		return TierMedium
	}
	return TierLow
}

// Tiers holds one tier per key.
type Tiers struct {
	DeploymentFrequency Tier `json:"deploymentFrequency"`
	LeadTime            Tier `json:"leadTime"`
	ChangeFailureRate   Tier `json:"changeFailureRate"`
	MTTR                Tier `json:"mttr"`
}

func (t Tiers) all() []Tier {
	return []Tier{t.DeploymentFrequency, t.LeadTime, t.ChangeFailureRate, t.MTTR}
}

// Overall combines the four tiers. All Elite/High with three or more Elite is
// Elite; all Elite/High otherwise is High; two or more Low is Low; anything
// else is Medium. The checks run in that order.
func (t Tiers) Overall() Tier {
	var elite, high, low int
	for _, tier := range t.all() {
		switch tier {
		case TierElite:
			elite++
		case TierHigh:
			high++
		case TierLow:
			low++
		}
	}

	if elite+high == 4 {
		if elite >= 3 {
			return TierElite
		}
		return TierHigh
	}
	if low >= 2 {
		return TierLow
	}
	return TierMedium
}
