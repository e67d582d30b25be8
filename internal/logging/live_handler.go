package logging

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
)

// liveHandler forwards to the current handler chain of its module, so a
// logger handed out before Initialize reaches the outputs set up later.
// WithAttrs and WithGroup are recorded and replayed onto each new chain.
type liveHandler struct {
	root  *atomic.Pointer[slog.Handler]
	ops   []func(slog.Handler) slog.Handler
	cache *atomic.Pointer[derivedHandler]
}

type derivedHandler struct {
	root *slog.Handler
	h    slog.Handler
}

func newLiveHandler(h slog.Handler) (*liveHandler, *atomic.Pointer[slog.Handler]) {
	root := &atomic.Pointer[slog.Handler]{}
	root.Store(&h)
	return &liveHandler{root: root, cache: &atomic.Pointer[derivedHandler]{}}, root
}

func (l *liveHandler) current() slog.Handler {
	root := l.root.Load()
	if d := l.cache.Load(); d != nil && d.root == root {
		return d.h
	}
	h := *root
	for _, op := range l.ops {
		h = op(h)
	}
	l.cache.Store(&derivedHandler{root: root, h: h})
	return h
}

// Enabled implements slog.Handler.
func (l *liveHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return l.current().Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (l *liveHandler) Handle(ctx context.Context, r slog.Record) error {
	return l.current().Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (l *liveHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return l.with(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

// WithGroup implements slog.Handler.
func (l *liveHandler) WithGroup(name string) slog.Handler {
	return l.with(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (l *liveHandler) with(op func(slog.Handler) slog.Handler) *liveHandler {
	return &liveHandler{
		root:  l.root,
		ops:   append(slices.Clip(l.ops), op),
		cache: &atomic.Pointer[derivedHandler]{},
	}
}
