package issues

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/akawula/fourkeys/github/client"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func issue(number int, label string, created, closed time.Time) map[string]interface{} {
	return map[string]interface{}{
		"number":    number,
		"title":     "incident",
		"createdAt": created,
		"updatedAt": closed,
		"closedAt":  closed,
		"labels":    map[string]interface{}{"nodes": []map[string]string{{"name": label}}},
	}
}

func issuesPage(hasNext bool, cursor string, nodes ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"repository": map[string]interface{}{
			"issues": map[string]interface{}{
				"nodes":    nodes,
				"pageInfo": map[string]interface{}{"hasNextPage": hasNext, "endCursor": cursor},
			},
		},
	}
}

func TestClosed_PagesUntilBound(t *testing.T) {
	m := &client.MockGitHubV4Client{T: t}
	m.SetResponses(
		issuesPage(true, "c1", issue(40, "incident", now.AddDate(0, 0, -2), now.AddDate(0, 0, -1))),
		issuesPage(true, "c2",
			issue(39, "bug", now.AddDate(0, 0, -6), now.AddDate(0, 0, -5)),
			issue(12, "incident", now.AddDate(0, -3, 0), now.AddDate(0, -2, 0)),
		),
		issuesPage(false, "", issue(1, "incident", now.AddDate(-1, 0, 0), now.AddDate(-1, 0, 0))),
	)

	got, err := Closed(context.Background(), m, "acme", "api", now.AddDate(0, 0, -7), slog.New(slog.NewJSONHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.Equal(t, 2, m.QueryCallCount)
	require.Len(t, got, 2)
	require.Equal(t, githubv4.Int(40), got[0].Number)
	require.Equal(t, []string{"incident"}, got[0].LabelNames())
	require.NotNil(t, got[0].ClosedAt)
	require.True(t, got[0].ClosedAt.Equal(now.AddDate(0, 0, -1)))
}

func TestClosed_Error(t *testing.T) {
	m := &client.MockGitHubV4Client{T: t}
	m.SetError(errors.New("boom"))

	_, err := Closed(context.Background(), m, "acme", "api", time.Time{}, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	require.ErrorContains(t, err, "listing closed issues of acme/api")
}
