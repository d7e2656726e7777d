// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is the logging facade used across the repository. It is backed by
// the slog based logger of go-ethereum.
package log

import (
	"context"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Levels, as in go-ethereum.
const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = ethlog.LevelDebug
	LevelInfo  = ethlog.LevelInfo
	LevelWarn  = ethlog.LevelWarn
	LevelError = ethlog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

// Logger writes key/value pairs at a level.
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
	With(ctx ...any) Logger
	Enabled(lvl slog.Level) bool
}

// lazyLogger resolves the root logger on every write, so package level loggers
// follow later calls to SetDefault.
type lazyLogger struct {
	ctx []any
}

func (l *lazyLogger) get() ethlog.Logger {
	return ethlog.Root().With(l.ctx...)
}

func (l *lazyLogger) Trace(msg string, ctx ...any) { l.get().Trace(msg, ctx...) }
func (l *lazyLogger) Debug(msg string, ctx ...any) { l.get().Debug(msg, ctx...) }
func (l *lazyLogger) Info(msg string, ctx ...any)  { l.get().Info(msg, ctx...) }
func (l *lazyLogger) Warn(msg string, ctx ...any)  { l.get().Warn(msg, ctx...) }
func (l *lazyLogger) Error(msg string, ctx ...any) { l.get().Error(msg, ctx...) }
func (l *lazyLogger) Crit(msg string, ctx ...any)  { l.get().Crit(msg, ctx...) }

func (l *lazyLogger) With(ctx ...any) Logger {
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	return &lazyLogger{append(merged, ctx...)}
}

func (l *lazyLogger) Enabled(lvl slog.Level) bool {
	return ethlog.Root().Enabled(context.Background(), lvl)
}

// WithContext returns a logger that always prepends ctx to its records.
func WithContext(ctx ...any) Logger {
	return &lazyLogger{ctx}
}

// Root returns the root logger.
func Root() Logger {
	return WithContext()
}

// SetDefault installs a new root logger built over the handler.
func SetDefault(h slog.Handler) {
	ethlog.SetDefault(ethlog.NewLogger(h))
}

// Trace is a convenient alias for Root().Trace.
func Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, ctx...) }

// Debug is a convenient alias for Root().Debug.
func Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, ctx...) }

// Info is a convenient alias for Root().Info.
func Info(msg string, ctx ...any) { ethlog.Root().Info(msg, ctx...) }

// Warn is a convenient alias for Root().Warn.
func Warn(msg string, ctx ...any) { ethlog.Root().Warn(msg, ctx...) }

// Error is a convenient alias for Root().Error.
func Error(msg string, ctx ...any) { ethlog.Root().Error(msg, ctx...) }
