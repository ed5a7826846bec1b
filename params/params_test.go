package params

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akawula/fourkeys/fourkeys"
)

func TestParseDefaults(t *testing.T) {
	req, err := Parse(url.Values{}, Defaults{})
	require.NoError(t, err)
	require.Equal(t, fourkeys.PeriodMonth, req.Period)
	require.Equal(t, fourkeys.DeploymentMethodRelease, req.Deployment.Method)
	require.Empty(t, req.Failure.IssueLabels)
}

func TestParseOverridesDefaults(t *testing.T) {
	d := Defaults{
		Period:     fourkeys.PeriodWeek,
		Deployment: fourkeys.DeploymentConfig{Method: fourkeys.DeploymentMethodTag, TagPrefix: "v"},
		Failure:    fourkeys.FailureConfig{IssueLabels: []string{"incident"}},
	}
	q := url.Values{
		Period:                 {"quarter"},
		TagPattern:             {`^v\d+`},
		IssueLabels:            {"bug, outage", "sev1"},
		PRBranchPattern:        {"^hotfix/"},
		DetectWorkflowFailures: {"true"},
	}

	req, err := Parse(q, d)
	require.NoError(t, err)
	require.Equal(t, fourkeys.PeriodQuarter, req.Period)
	require.Equal(t, fourkeys.DeploymentConfig{Method: fourkeys.DeploymentMethodTag, TagPrefix: "v", TagPattern: `^v\d+`}, req.Deployment)
	require.Equal(t, []string{"bug", "outage", "sev1"}, req.Failure.IssueLabels)
	require.Equal(t, "^hotfix/", req.Failure.PRBranchPattern)
	require.True(t, req.Failure.DetectWorkflowFailures)

	// defaults are not mutated
	require.Equal(t, []string{"incident"}, d.Failure.IssueLabels)
}

func TestParseEmptyLabelsClearDefault(t *testing.T) {
	d := Defaults{Failure: fourkeys.FailureConfig{PRLabels: []string{"hotfix"}}}
	req, err := Parse(url.Values{PRLabels: {""}}, d)
	require.NoError(t, err)
	require.Empty(t, req.Failure.PRLabels)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		q    url.Values
	}{
		{"period", url.Values{Period: {"decade"}}},
		{"method", url.Values{DeploymentMethod: {"nightly"}}},
		{"tag pattern", url.Values{TagPattern: {"("}}},
		{"branch pattern", url.Values{PRBranchPattern: {"[a-"}}},
		{"bool", url.Values{DetectWorkflowFailures: {"maybe"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.q, Defaults{})
			require.ErrorIs(t, err, fourkeys.ErrInvalidConfiguration)
		})
	}
}
