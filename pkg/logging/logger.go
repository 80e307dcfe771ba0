// Package logging holds the SDK's logger and the CLI's log file writer.
package logging

import (
	"context"
	"log/slog"
)

const prefix = "[AgentOps] "

// Logger wraps slog.Logger and prepends "[AgentOps]" to every message.
// A nil *Logger falls back to slog.Default().
type Logger struct {
	logger *slog.Logger
}

// New returns a Logger backed by l, or by slog.Default() when l is nil.
func New(l *slog.Logger) *Logger {
	return &Logger{logger: l}
}

func (l *Logger) base() *slog.Logger {
	if l == nil || l.logger == nil {
		return slog.Default()
	}
	return l.logger
}

func (l *Logger) Debug(msg string, args ...any) {
	l.base().Debug(prefix+msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.base().Info(prefix+msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.base().Warn(prefix+msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.base().Error(prefix+msg, args...)
}

// Enabled reports whether the underlying logger emits records at level.
func (l *Logger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.base().Enabled(ctx, level)
}

// With returns a Logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.base().With(args...)}
}
