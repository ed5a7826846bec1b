package fourkeys

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyDeploymentFrequency(t *testing.T) {
	require.Equal(t, TierElite, ClassifyDeploymentFrequency(1.0))
	require.Equal(t, TierHigh, ClassifyDeploymentFrequency(math.Nextafter(1.0, 0)))
	require.Equal(t, TierHigh, ClassifyDeploymentFrequency(1.0/7))
	require.Equal(t, TierMedium, ClassifyDeploymentFrequency(1.0/30))
	require.Equal(t, TierLow, ClassifyDeploymentFrequency(0.03))
	require.Equal(t, TierLow, ClassifyDeploymentFrequency(0))
}

func TestClassifyLeadTime(t *testing.T) {
	require.Equal(t, TierElite, ClassifyLeadTime(23.99))
	require.Equal(t, TierHigh, ClassifyLeadTime(24.0))
	require.Equal(t, TierMedium, ClassifyLeadTime(168))
	require.Equal(t, TierLow, ClassifyLeadTime(720))
}

func TestClassifyChangeFailureRate(t *testing.T) {
	require.Equal(t, TierElite, ClassifyChangeFailureRate(0))
	require.Equal(t, TierElite, ClassifyChangeFailureRate(15))
	require.Equal(t, TierHigh, ClassifyChangeFailureRate(15.01))
	require.Equal(t, TierHigh, ClassifyChangeFailureRate(30))
	require.Equal(t, TierMedium, ClassifyChangeFailureRate(45))
	require.Equal(t, TierLow, ClassifyChangeFailureRate(45.01))
}

func TestClassifyMTTR(t *testing.T) {
	require.Equal(t, TierElite, ClassifyMTTR(0.99))
	require.Equal(t, TierHigh, ClassifyMTTR(1))
	require.Equal(t, TierMedium, ClassifyMTTR(24))
	require.Equal(t, TierLow, ClassifyMTTR(168))
}

func TestTiersOverall(t *testing.T) {
	testCases := []struct {
		name     string
		tiers    Tiers
		expected Tier
	}{
		{"Three elite one high", Tiers{TierElite, TierElite, TierElite, TierHigh}, TierElite},
		{"All elite", Tiers{TierElite, TierElite, TierElite, TierElite}, TierElite},
		{"Two elite two high", Tiers{TierElite, TierElite, TierHigh, TierHigh}, TierHigh},
		{"All high", Tiers{TierHigh, TierHigh, TierHigh, TierHigh}, TierHigh},
		{"Two low", Tiers{TierElite, TierHigh, TierLow, TierLow}, TierLow},
		{"One medium", Tiers{TierElite, TierHigh, TierMedium, TierHigh}, TierMedium},
		{"One low", Tiers{TierElite, TierElite, TierElite, TierLow}, TierMedium},
		{"All low", Tiers{TierLow, TierLow, TierLow, TierLow}, TierLow},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.tiers.Overall())
		})
	}
}

func TestTierText(t *testing.T) {
	b, err := json.Marshal(Tiers{TierElite, TierHigh, TierMedium, TierLow})
	require.NoError(t, err)
	require.JSONEq(t, `{"deploymentFrequency":"elite","leadTime":"high","changeFailureRate":"medium","mttr":"low"}`, string(b))

	var back Tiers
	require.NoError(t, json.Unmarshal(b, &back))
	require.Equal(t, Tiers{TierElite, TierHigh, TierMedium, TierLow}, back)

	var tier Tier
	require.Error(t, tier.UnmarshalText([]byte("legendary")))
}
