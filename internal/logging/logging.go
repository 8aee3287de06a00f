// Package logging provides the logger handed to every component. The
// default is a no-op; a file-backed slog logger is attached only when
// the user asks for one, since a full-screen program cannot write to
// stderr.
package logging

import (
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the narrow logging surface the rest of the program uses.
// Arguments follow slog's alternating key/value convention.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards everything.
func Nop() Logger { return nopLogger{} }

// ToFile returns a logger appending to path with rotation, so a
// long-running session cannot fill the disk.
func ToFile(path string, level slog.Level) Logger {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 2,
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
