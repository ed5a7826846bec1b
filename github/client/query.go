package client

import (
	"context"
	"log/slog"
)

// DefaultQueryRetries is how often a failed GraphQL query is repeated.
// GraphQL errors arrive with status 200 and are invisible to the transport.
const DefaultQueryRetries = 3

// QueryWithRetry runs q, repeating it up to retries times on error.
func QueryWithRetry(ctx context.Context, c GitHubV4Client, q interface{}, variables map[string]interface{}, retries int, logger *slog.Logger) error {
	for {
		err := c.Query(ctx, q, variables)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if retries <= 0 {
			return err
		}
		logger.Debug("Retrying GitHub query", "variables", variables, "retries", retries, "error", err)
		retries--
	}
}
