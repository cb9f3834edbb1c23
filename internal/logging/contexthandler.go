package logging

import (
	"context"
	"log/slog"
	"sync"
)

// ContextProvider is a function that returns dynamic context attributes.
type ContextProvider func() []slog.Attr

// ContextHandler wraps another handler and injects dynamic context attributes.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

// NewContextHandler creates a handler that adds dynamic context to each record.
func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{
		inner:    inner,
		provider: provider,
	}
}

// Enabled delegates to the inner handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds dynamic context attributes and delegates to the inner handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a new ContextHandler with the given attributes.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{
		inner:    h.inner.WithAttrs(attrs),
		provider: h.provider,
	}
}

// WithGroup returns a new ContextHandler with the given group.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{
		inner:    h.inner.WithGroup(name),
		provider: h.provider,
	}
}

// RunContext holds the attributes of the migration run currently in progress.
// Its Attrs method is a ContextProvider.
type RunContext struct {
	mu      sync.RWMutex
	project string
	runID   string
}

// Set replaces the current project and run ID.
func (c *RunContext) Set(project, runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.project = project
	c.runID = runID
}

// Attrs returns the non-empty run attributes.
func (c *RunContext) Attrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var attrs []slog.Attr
	if c.project != "" {
		attrs = append(attrs, slog.String("project", c.project))
	}
	if c.runID != "" {
		attrs = append(attrs, slog.String("runId", c.runID))
	}
	return attrs
}
