package logging

import (
	"context"
	"log/slog"
	"sync"
)

// componentKey is the attribute key used to identify a component.
// Components attach it once at construction time via logger.With.
const componentKey = "component"

// ComponentFilterHandler wraps another handler and filters records by a
// per-component log level. Components are identified by the "component"
// attribute. Records from components without an explicit level use the
// default level.
//
// Level changes take effect immediately and are safe to call while other
// goroutines are logging.
type ComponentFilterHandler struct {
	next         slog.Handler
	defaultLevel slog.Level

	mu     sync.RWMutex
	levels map[string]slog.Level

	// preAttrs holds attributes attached via WithAttrs, so that a
	// component set with logger.With("component", ...) is still seen.
	preAttrs []slog.Attr
}

// NewComponentFilterHandler creates a handler that forwards to next,
// filtering records below defaultLevel unless a per-component override
// says otherwise.
func NewComponentFilterHandler(next slog.Handler, defaultLevel slog.Level) *ComponentFilterHandler {
	return &ComponentFilterHandler{
		next:         next,
		defaultLevel: defaultLevel,
		levels:       make(map[string]slog.Level),
	}
}

// SetLevel overrides the minimum level for the given component.
func (h *ComponentFilterHandler) SetLevel(component string, level slog.Level) {
	h.mu.Lock()
	h.levels[component] = level
	h.mu.Unlock()
}

// ClearLevel removes a per-component override, reverting to the default.
func (h *ComponentFilterHandler) ClearLevel(component string) {
	h.mu.Lock()
	delete(h.levels, component)
	h.mu.Unlock()
}

// Level returns the effective minimum level for the given component.
func (h *ComponentFilterHandler) Level(component string) slog.Level {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if level, ok := h.levels[component]; ok {
		return level
	}
	return h.defaultLevel
}

// DefaultLevel returns the level used for components without an override.
func (h *ComponentFilterHandler) DefaultLevel() slog.Level {
	return h.defaultLevel
}

// Enabled reports whether any component could log at the given level.
// The per-record component is not known here, so this only rejects levels
// below every configured threshold.
func (h *ComponentFilterHandler) Enabled(_ context.Context, level slog.Level) bool {
	if level >= h.defaultLevel {
		return true
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, l := range h.levels {
		if level >= l {
			return true
		}
	}
	return false
}

// Handle forwards the record to the wrapped handler if it clears the
// effective level for its component.
func (h *ComponentFilterHandler) Handle(ctx context.Context, r slog.Record) error {
	component := ""
	for _, attr := range h.preAttrs {
		if attr.Key == componentKey {
			component = attr.Value.String()
		}
	}
	if component == "" {
		r.Attrs(func(attr slog.Attr) bool {
			if attr.Key == componentKey {
				component = attr.Value.String()
				return false
			}
			return true
		})
	}
	if r.Level < h.Level(component) {
		return nil
	}
	return h.next.Handle(ctx, r)
}

// WithAttrs returns a handler sharing the same level table, with the
// attributes recorded for component resolution and forwarded downstream.
func (h *ComponentFilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	pre := make([]slog.Attr, 0, len(h.preAttrs)+len(attrs))
	pre = append(pre, h.preAttrs...)
	pre = append(pre, attrs...)
	return &filterChild{parent: h, next: h.next.WithAttrs(attrs), preAttrs: pre}
}

// WithGroup returns a handler sharing the same level table.
func (h *ComponentFilterHandler) WithGroup(name string) slog.Handler {
	return &filterChild{parent: h, next: h.next.WithGroup(name), preAttrs: h.preAttrs}
}

// filterChild is a derived handler produced by WithAttrs/WithGroup. It
// consults the parent's level table so SetLevel on the root applies to
// every scoped logger.
type filterChild struct {
	parent   *ComponentFilterHandler
	next     slog.Handler
	preAttrs []slog.Attr
}

func (c *filterChild) Enabled(ctx context.Context, level slog.Level) bool {
	return c.parent.Enabled(ctx, level)
}

func (c *filterChild) Handle(ctx context.Context, r slog.Record) error {
	component := ""
	for _, attr := range c.preAttrs {
		if attr.Key == componentKey {
			component = attr.Value.String()
		}
	}
	if component == "" {
		r.Attrs(func(attr slog.Attr) bool {
			if attr.Key == componentKey {
				component = attr.Value.String()
				return false
			}
			return true
		})
	}
	if r.Level < c.parent.Level(component) {
		return nil
	}
	return c.next.Handle(ctx, r)
}

func (c *filterChild) WithAttrs(attrs []slog.Attr) slog.Handler {
	pre := make([]slog.Attr, 0, len(c.preAttrs)+len(attrs))
	pre = append(pre, c.preAttrs...)
	pre = append(pre, attrs...)
	return &filterChild{parent: c.parent, next: c.next.WithAttrs(attrs), preAttrs: pre}
}

func (c *filterChild) WithGroup(name string) slog.Handler {
	return &filterChild{parent: c.parent, next: c.next.WithGroup(name), preAttrs: c.preAttrs}
}
