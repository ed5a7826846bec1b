package logging

import (
	"context"

	"github.com/google/uuid"
)

func from(ctx context.Context) fields {
	f, _ := ctx.Value(key).(fields)
	return f
}

// WithRequest starts a request context with a fresh request ID.
func WithRequest(ctx context.Context, method, path string) context.Context {
	f := from(ctx)
	f.RequestID = uuid.NewString()
	f.Method = method
	f.Path = path
	return context.WithValue(ctx, key, f)
}

// WithUser records the authenticated user.
func WithUser(ctx context.Context, user string) context.Context {
	f := from(ctx)
	f.User = user
	return context.WithValue(ctx, key, f)
}

// WithRepository records the repository a request works on.
func WithRepository(ctx context.Context, repo string) context.Context {
	f := from(ctx)
	f.Repository = repo
	return context.WithValue(ctx, key, f)
}

// RequestID returns the ID set by WithRequest, if any.
func RequestID(ctx context.Context) string {
	return from(ctx).RequestID
}
