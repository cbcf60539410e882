package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor pulls one attribute out of a context. It reports false
// when the context carries nothing worth logging.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// contextHandler adds extracted attributes to every record it handles.
//
// Extracted values are defaults: an attribute is skipped when the record
// already carries its key, or when a logger derived with With set that key
// in the current group. When two extractors yield the same key, the first
// registered one wins.
type contextHandler struct {
	next       slog.Handler
	extractors []ContextExtractor
	static     map[string]struct{}
}

// NewContextHandler wraps next so that records pick up attributes from the
// context passed to the *Context logging methods. Nil extractors are dropped;
// with none left, next is returned unchanged.
func NewContextHandler(next slog.Handler, extractors ...ContextExtractor) slog.Handler {
	clean := make([]ContextExtractor, 0, len(extractors))
	for _, ex := range extractors {
		if ex != nil {
			clean = append(clean, ex)
		}
	}
	if len(clean) == 0 {
		return next
	}
	return &contextHandler{next: next, extractors: clean}
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	var extracted []slog.Attr
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok && attr.Key != "" {
			extracted = append(extracted, attr)
		}
	}
	if len(extracted) == 0 {
		return h.next.Handle(ctx, rec)
	}

	rec = rec.Clone()
	present := make(map[string]struct{}, rec.NumAttrs()+len(extracted))
	rec.Attrs(func(a slog.Attr) bool {
		present[a.Key] = struct{}{}
		return true
	})
	for _, attr := range extracted {
		if _, ok := present[attr.Key]; ok {
			continue
		}
		if _, ok := h.static[attr.Key]; ok {
			continue
		}
		present[attr.Key] = struct{}{}
		rec.AddAttrs(attr)
	}
	return h.next.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	static := make(map[string]struct{}, len(h.static)+len(attrs))
	for k := range h.static {
		static[k] = struct{}{}
	}
	for _, a := range attrs {
		static[a.Key] = struct{}{}
	}
	return &contextHandler{
		next:       h.next.WithAttrs(attrs),
		extractors: h.extractors,
		static:     static,
	}
}

// WithGroup opens a new scope: record attributes land inside the group, so
// keys set with With before it no longer collide with extracted ones.
func (h *contextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &contextHandler{
		next:       h.next.WithGroup(name),
		extractors: h.extractors,
	}
}
