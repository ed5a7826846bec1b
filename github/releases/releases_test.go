package releases

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/akawula/fourkeys/github/client"
	"github.com/shurcooL/githubv4"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func releasesPage(hasNext bool, cursor string, nodes ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"repository": map[string]interface{}{
			"releases": map[string]interface{}{
				"nodes":    nodes,
				"pageInfo": map[string]interface{}{"hasNextPage": hasNext, "endCursor": cursor},
			},
		},
	}
}

func TestList_Paginated(t *testing.T) {
	mockClient := &client.MockGitHubV4Client{T: t}
	mockClient.SetResponses(
		releasesPage(true, "c1",
			map[string]interface{}{"tagName": "v2.0.0", "name": "Two", "publishedAt": "2024-06-10T10:00:00Z"},
			map[string]interface{}{"tagName": "v2.0.0-rc1", "isPrerelease": true, "publishedAt": "2024-06-09T10:00:00Z"},
		),
		releasesPage(false, "",
			map[string]interface{}{"tagName": "v1.0.0", "isDraft": true},
		),
	)

	got, err := List(context.Background(), mockClient, "acme", "api", quietLogger())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 releases, got %d", len(got))
	}
	if mockClient.QueryCallCount != 2 {
		t.Errorf("Expected Query to be called 2 times, got %d", mockClient.QueryCallCount)
	}
	if after := mockClient.Variables[1]["after"].(*githubv4.String); after == nil || *after != "c1" {
		t.Errorf("Expected second page after cursor c1, got %v", after)
	}
	want := time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)
	if got[0].PublishedAt == nil || !got[0].PublishedAt.Time.Equal(want) {
		t.Errorf("Expected first release published at %v, got %v", want, got[0].PublishedAt)
	}
	if !bool(got[1].IsPrerelease) || !bool(got[2].IsDraft) {
		t.Errorf("Expected draft and prerelease flags to be decoded, got %+v", got)
	}
	if got[2].PublishedAt != nil {
		t.Errorf("Expected unpublished draft to have no publish date, got %v", got[2].PublishedAt)
	}
}

func TestList_Error(t *testing.T) {
	mockClient := &client.MockGitHubV4Client{T: t}
	mockClient.SetError(errors.New("graphql: something went wrong"))

	_, err := List(context.Background(), mockClient, "acme", "api", quietLogger())
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
	if mockClient.QueryCallCount != client.DefaultQueryRetries+1 {
		t.Errorf("Expected %d attempts, got %d", client.DefaultQueryRetries+1, mockClient.QueryCallCount)
	}
}

func TestTags_PeelsAnnotatedTags(t *testing.T) {
	mockClient := &client.MockGitHubV4Client{T: t}
	mockClient.SetResponse(map[string]interface{}{
		"repository": map[string]interface{}{
			"refs": map[string]interface{}{
				"nodes": []map[string]interface{}{
					{"name": "prodv1.0.0r1", "target": map[string]interface{}{"oid": "tagobj", "annotatedTo": map[string]interface{}{"target": map[string]interface{}{"oid": "commit1"}}}},
					{"name": "devv1.0.0r1", "target": map[string]interface{}{"oid": "commit2"}},
				},
				"pageInfo": map[string]interface{}{"hasNextPage": false},
			},
		},
	})
	mockClient.ExpectedVariables = map[string]interface{}{"owner": githubv4.String("acme"), "name": githubv4.String("api"), "after": (*githubv4.String)(nil)}

	got, err := Tags(context.Background(), mockClient, "acme", "api", quietLogger())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	tests := []struct {
		name string
		want string
	}{
		{"prodv1.0.0r1", "commit1"},
		{"devv1.0.0r1", "commit2"},
	}
	if len(got) != len(tests) {
		t.Fatalf("Expected %d tags, got %d", len(tests), len(got))
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(got[i].Name) != tt.name {
				t.Errorf("Expected name %s, got %s", tt.name, got[i].Name)
			}
			if ref := got[i].CommitRef(); ref != tt.want {
				t.Errorf("Expected commit %s, got %s", tt.want, ref)
			}
		})
	}
}
