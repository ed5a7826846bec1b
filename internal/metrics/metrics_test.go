package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/akawula/fourkeys/fourkeys"
)

func TestRecorderCountsOutcomes(t *testing.T) {
	ok := calculationsTotal.WithLabelValues(fourkeys.MetricLeadTime, OutcomeSuccess)
	failed := calculationsTotal.WithLabelValues(fourkeys.MetricLeadTime, OutcomeError)
	beforeOK, beforeFailed := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	var r Recorder
	r.ObserveCalculation(fourkeys.MetricLeadTime, 2*time.Second, nil)
	r.ObserveCalculation(fourkeys.MetricLeadTime, time.Second, errors.New("boom"))

	require.Equal(t, beforeOK+1, testutil.ToFloat64(ok))
	require.Equal(t, beforeFailed+1, testutil.ToFloat64(failed))
}

func TestObserveGitHubResponse(t *testing.T) {
	c := githubRequestsTotal.WithLabelValues("403")
	before := testutil.ToFloat64(c)
	ObserveGitHubResponse(http.StatusForbidden)
	require.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestSetTiers(t *testing.T) {
	SetTiers("acme/api", fourkeys.Tiers{
		DeploymentFrequency: fourkeys.TierElite,
		LeadTime:            fourkeys.TierHigh,
		ChangeFailureRate:   fourkeys.TierMedium,
		MTTR:                fourkeys.TierLow,
	})

	require.Equal(t, 3.0, testutil.ToFloat64(tierLevel.WithLabelValues("acme/api", fourkeys.MetricDeploymentFrequency)))
	require.Equal(t, 2.0, testutil.ToFloat64(tierLevel.WithLabelValues("acme/api", fourkeys.MetricLeadTime)))
	require.Equal(t, 1.0, testutil.ToFloat64(tierLevel.WithLabelValues("acme/api", fourkeys.MetricChangeFailureRate)))
	require.Equal(t, 0.0, testutil.ToFloat64(tierLevel.WithLabelValues("acme/api", fourkeys.MetricMTTR)))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	req := httptest.NewRequest(http.MethodGet, "/repos/acme/api/lead-time", nil)
	rctx := chi.NewRouteContext()
	rctx.RoutePatterns = []string{"/repos/{owner}/{repo}/lead-time"}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	c := httpRequestsTotal.WithLabelValues(http.MethodGet, "/repos/{owner}/{repo}/lead-time", "202")
	before := testutil.ToFloat64(c)

	rec := httptest.NewRecorder()
	Middleware(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestRouteFallsBackToPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	require.Equal(t, "/livez", Route(req))
}
