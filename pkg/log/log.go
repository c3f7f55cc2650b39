// Package log provides leveled, structured logging for the drafter.
//
// Call sites use package functions with slog-style key/value pairs:
//
//	log.Info("updating existing draft release", "repo", repo, "release_id", id)
//
// Output goes to stderr and, when configured, to a size-rotated log file.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level names accepted in configuration.
const (
	LevelDebug    = "debug"
	LevelInfo     = "info"
	LevelProgress = "progress"
	LevelMinimal  = "minimal"
)

// slogProgress sits between info and warn: progress output hides chatty info
// lines but keeps pipeline milestones.
const slogProgress = slog.LevelInfo + 2

// Options configures the package logger.
type Options struct {
	// Level is one of debug, info, progress, minimal. Empty means info.
	Level string
	// JSON switches the console output to JSON lines
	JSON bool
	// Writer receives console output. Nil means os.Stderr.
	Writer io.Writer
	// File, when set, receives a JSON copy of every record
	File string
	// MaxSizeMB, MaxBackups and MaxAgeDays control file rotation
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	mu     sync.RWMutex
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	closer io.Closer
)

// ParseLevel converts a level name into a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", LevelInfo:
		return slog.LevelInfo, nil
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelProgress:
		return slogProgress, nil
	case LevelMinimal:
		return slog.LevelWarn, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug, info, progress or minimal)", level)
	}
}

// Setup replaces the package logger. It returns an error for an unknown
// level; the previous logger stays in place in that case.
func Setup(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelName,
	}

	var console slog.Handler
	if opts.JSON {
		console = slog.NewJSONHandler(w, handlerOpts)
	} else {
		console = slog.NewTextHandler(w, handlerOpts)
	}

	handler := console
	var fileCloser io.Closer
	if opts.File != "" {
		rotator := newRotator(opts)
		handler = fanout{console, slog.NewJSONHandler(rotator, handlerOpts)}
		fileCloser = rotator
	}

	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		_ = closer.Close()
	}
	logger = slog.New(handler)
	closer = fileCloser
	return nil
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}

func newRotator(opts Options) *lumberjack.Logger {
	l := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   false,
	}
	if opts.MaxSizeMB > 0 {
		l.MaxSize = opts.MaxSizeMB
	}
	if opts.MaxBackups > 0 {
		l.MaxBackups = opts.MaxBackups
	}
	if opts.MaxAgeDays > 0 {
		l.MaxAge = opts.MaxAgeDays
	}
	return l
}

func replaceLevelName(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == slogProgress {
			a.Value = slog.StringValue("PROGRESS")
		}
	}
	return a
}

// Logger returns the current package logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Scoped is a logger that adds fixed attributes to every record.
type Scoped struct {
	l *slog.Logger
}

// With returns a scoped logger that adds args to every record.
func With(args ...any) Scoped {
	return Scoped{l: Logger().With(args...)}
}

// With adds more attributes.
func (s Scoped) With(args ...any) Scoped {
	return Scoped{l: s.l.With(args...)}
}

func (s Scoped) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s Scoped) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s Scoped) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s Scoped) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s Scoped) Progress(msg string, args ...any) {
	s.l.Log(context.Background(), slogProgress, msg, args...)
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Progress logs a pipeline milestone.
func Progress(msg string, args ...any) {
	Logger().Log(context.Background(), slogProgress, msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// fanout sends every record to all handlers that accept its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
