package fbi

import (
	"context"
	"log/slog"
)

// discardHandler is a slog.Handler that silently discards every record,
// the same no-op-by-default idiom gogpu-gg's logger.go establishes — a
// Core is silent until a host opts in with SetLogger.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }

func defaultLogger() *slog.Logger {
	return slog.New(discardHandler{})
}

// SetLogger installs the structured logger held by the core. No code
// path in this package currently emits records through it. Pass nil to
// return to a silent logger.
func (c *Core) SetLogger(l *slog.Logger) {
	if l == nil {
		l = defaultLogger()
	}
	c.log = l
}
