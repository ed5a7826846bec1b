package fourkeys

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned for an unknown period, an unknown
	// deployment method or a pattern that does not compile.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrWorkflowNotFound is returned when a workflow name or file was
	// configured and no workflow of the repository matches it.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrUpstreamFetch wraps a failed bulk fetch from the ActivityProvider.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrPartialResolution marks a per-item lookup failure (a tag whose commit
	// could not be resolved). It is logged and the item is skipped; it never
	// reaches the caller.
	ErrPartialResolution = errors.New("partial resolution failure")
)

func upstreamError(op string, repo Repository, err error) error {
	return fmt.Errorf("%w: %s for %s: %w", ErrUpstreamFetch, op, repo, err)
}
