package activity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v39/github"
	"github.com/stretchr/testify/require"

	"github.com/akawula/fourkeys/fourkeys"
	"github.com/akawula/fourkeys/github/client"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newREST(t *testing.T, mux *http.ServeMux) *github.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	c := github.NewClient(nil)
	u, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	c.BaseURL = u
	return c
}

func commitHandler(date time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"commit":{"author":{"date":%q}}}`, date.Format(time.RFC3339))
	}
}

func TestProvider_TagDeploymentFrequency(t *testing.T) {
	v4 := &client.MockGitHubV4Client{T: t}
	v4.SetResponse(map[string]interface{}{
		"repository": map[string]interface{}{
			"refs": map[string]interface{}{
				"nodes": []map[string]interface{}{
					{"name": "prodv1.1.0r1", "target": map[string]interface{}{"oid": "c1"}},
					{"name": "prodv1.0.0r1", "target": map[string]interface{}{"oid": "t2", "annotatedTo": map[string]interface{}{"target": map[string]interface{}{"oid": "c2"}}}},
					{"name": "devv1.1.0r1", "target": map[string]interface{}{"oid": "c3"}},
				},
				"pageInfo": map[string]interface{}{"hasNextPage": false},
			},
		},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/commits/c1", commitHandler(now.AddDate(0, 0, -3)))
	mux.HandleFunc("/repos/acme/api/commits/c2", commitHandler(now.AddDate(0, 0, -60)))
	mux.HandleFunc("/repos/acme/api/commits/c3", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("dev tag commit should not be resolved")
	})

	svc := fourkeys.NewService(New(v4, newREST(t, mux), quietLogger()), quietLogger(),
		fourkeys.WithClock(func() time.Time { return now }),
		fourkeys.WithLocation(time.UTC),
	)

	res, err := svc.DeploymentFrequency(context.Background(), fourkeys.Repository{Owner: "acme", Name: "api"}, fourkeys.PeriodWeek,
		fourkeys.DeploymentConfig{Method: fourkeys.DeploymentMethodTag, TagPrefix: "prodv"})
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalDeployments)
	require.Equal(t, 0.125, res.DeploymentsPerDay)
}

func TestProvider_ListWorkflowRuns(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/api/actions/workflows/3/runs", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"total_count":1,"workflow_runs":[{"id":77,"name":"Deploy","conclusion":"failure","head_branch":"release","created_at":"2024-06-14T10:00:00Z"}]}`)
	})
	p := New(&client.MockGitHubV4Client{T: t}, newREST(t, mux), quietLogger())

	runs, err := p.ListWorkflowRuns(context.Background(), "acme", "api", fourkeys.RunFilter{WorkflowID: 3, Status: fourkeys.RunStatusFailure})
	require.NoError(t, err)
	require.Equal(t, []fourkeys.WorkflowRun{{
		ID:         77,
		Name:       "Deploy",
		Conclusion: "failure",
		HeadBranch: "release",
		CreatedAt:  time.Date(2024, 6, 14, 10, 0, 0, 0, time.UTC),
	}}, runs)
}

func TestProvider_ListClosedIssues(t *testing.T) {
	v4 := &client.MockGitHubV4Client{T: t}
	closed := now.AddDate(0, 0, -1)
	v4.SetResponse(map[string]interface{}{
		"repository": map[string]interface{}{
			"issues": map[string]interface{}{
				"nodes": []map[string]interface{}{{
					"number":    12,
					"title":     "API down",
					"createdAt": now.AddDate(0, 0, -2),
					"updatedAt": closed,
					"closedAt":  closed,
					"labels":    map[string]interface{}{"nodes": []map[string]string{{"name": "Incident"}}},
				}},
				"pageInfo": map[string]interface{}{"hasNextPage": false},
			},
		},
	})
	p := New(v4, nil, quietLogger())

	got, err := p.ListClosedIssues(context.Background(), "acme", "api", fourkeys.ClosedFilter{UpdatedSince: now.AddDate(0, 0, -7)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 12, got[0].Number)
	require.Equal(t, []string{"Incident"}, got[0].Labels)
	require.False(t, got[0].IsPullRequest)
	require.NotNil(t, got[0].ClosedAt)
	require.True(t, got[0].ClosedAt.Equal(closed))
}

func TestProvider_PropagatesErrors(t *testing.T) {
	v4 := &client.MockGitHubV4Client{T: t}
	v4.SetError(fmt.Errorf("boom"))
	p := New(v4, nil, quietLogger())

	_, err := p.ListReleases(context.Background(), "acme", "api")
	require.ErrorContains(t, err, "listing releases of acme/api")
}
