package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type keyType int

const key = keyType(0)

// fields are attached to every record logged with a request context.
type fields struct {
	RequestID  string
	Method     string
	Path       string
	User       string
	Repository string
}

// ContextHandler wraps a slog.Handler and adds the request fields stored in
// the context.
type ContextHandler struct {
	next slog.Handler
}

func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if f, ok := ctx.Value(key).(fields); ok {
		addIfSet(&rec, "request_id", f.RequestID)
		addIfSet(&rec, "method", f.Method)
		addIfSet(&rec, "path", f.Path)
		addIfSet(&rec, "user", f.User)
		addIfSet(&rec, "repository", f.Repository)
	}
	return h.next.Handle(ctx, rec)
}

func addIfSet(rec *slog.Record, k, v string) {
	if v != "" {
		rec.AddAttrs(slog.String(k, v))
	}
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}

// New returns a JSON logger at level that understands request contexts. Pass
// a *slog.LevelVar to change the level at runtime.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(NewContextHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

// Level maps a configured level name to a slog.Level. DEBUG=1 always wins.
func Level(name string) slog.Level {
	if os.Getenv("DEBUG") == "1" {
		return slog.LevelDebug
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return slog.LevelInfo
	}
	return l
}
