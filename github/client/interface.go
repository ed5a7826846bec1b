package client

import (
	"context"

	"github.com/shurcooL/githubv4"
)

// GitHubV4Client defines the interface for the methods used from the githubv4 client.
// This allows for mocking the client in tests.
type GitHubV4Client interface {
	Query(ctx context.Context, q interface{}, variables map[string]interface{}) error
}

// PageInfo is the cursor block of every GraphQL connection we page through.
type PageInfo struct {
	HasNextPage githubv4.Boolean
	EndCursor   githubv4.String
}

// NextCursor returns the variable value for the following page.
func (p PageInfo) NextCursor() *githubv4.String {
	c := p.EndCursor
	return &c
}
