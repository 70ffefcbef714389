// Package logging provides structured logging utilities for the register:
// resolution of optional Config.Logger fields (Default, Discard) and
// per-component level filtering (ComponentFilterHandler).
//
// Design principles:
//   - Logging is dependency-injected, never global
//   - Each component owns its own scoped logger
//   - Logger scoping happens once at construction time
//   - slog.With() is used to attach default attributes
//   - If no logger is provided, a discard logger is used
//
// Global configuration (output format, level, destination) belongs only in
// main(). Components must never call slog.SetDefault or access global
// loggers.
//
// Logging is intentionally sparse:
//   - No logging on the mutation hot path (update/remove/view selection)
//   - Lifecycle boundaries are the intended log points
package logging

import (
	"context"
	"log/slog"
)

// discardHandler is a handler that discards all log records.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// Discard returns a logger that discards all output. It backs the nil
// branch of Default; tests that want a component quiet regardless of
// configuration pass it explicitly.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

// Default returns the provided logger if non-nil, otherwise returns a
// discard logger. Config.Logger fields are optional throughout the
// register, and every constructor resolves them the same way:
//
//	logger := logging.Default(cfg.Logger).With("component", "register")
//
// The component attribute is what ComponentFilterHandler keys per-component
// levels on, so scoping happens exactly once, at construction.
func Default(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return Discard()
}
