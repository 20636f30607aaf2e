// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package morilog provides mori's structured logging sink, a thin wrapper
// around charmbracelet/log so call sites use a stable key-value signature
// regardless of the backing formatter.
package morilog

import (
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

// Logger is the structured logging contract consumed across mori.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
	With(kv ...any) Logger
}

type charmLogger struct {
	l *log.Logger
}

// New builds the default logger: text formatting with color on a TTY
// stderr, JSON formatting otherwise (e.g. when redirected to a file or
// piped into another process's log collector).
func New() Logger {
	opts := log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		opts.Formatter = log.TextFormatter
	} else {
		opts.Formatter = log.JSONFormatter
	}
	return &charmLogger{l: log.NewWithOptions(os.Stderr, opts)}
}

// NewWithLevel builds a logger at the given level, useful for -v/-q flags.
func NewWithLevel(level log.Level) Logger {
	l := New().(*charmLogger)
	l.l.SetLevel(level)
	return l
}

func (c *charmLogger) Debug(msg string, kv ...any) { c.l.Debug(msg, kv...) }
func (c *charmLogger) Info(msg string, kv ...any)  { c.l.Info(msg, kv...) }
func (c *charmLogger) Warn(msg string, kv ...any)  { c.l.Warn(msg, kv...) }
func (c *charmLogger) Error(msg string, kv ...any) { c.l.Error(msg, kv...) }

func (c *charmLogger) With(kv ...any) Logger {
	return &charmLogger{l: c.l.With(kv...)}
}

// Nop returns a Logger that discards everything, for tests that don't care
// about log output.
func Nop() Logger {
	l := log.New(os.Stderr)
	l.SetLevel(log.Level(99))
	return &charmLogger{l: l}
}
