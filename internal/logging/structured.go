// Package logging provides structured JSON logging for dspdocs components.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dreamfactory/dspdocs/internal/config"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// slogLevel maps a Level onto slog. Unknown values fall back to info.
func (l Level) slogLevel() slog.Level {
	switch Level(strings.ToLower(string(l))) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger provides structured logging scoped to a component.
type Logger struct {
	component string
	build     string
	out       *slog.Logger
}

// Option configures a Logger.
type Option func(*options)

type options struct {
	w     io.Writer
	level Level
}

// WithOutput sends log lines to w instead of stderr.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.w = w }
}

// WithLevel sets the minimum level, overriding DSP_LOG_LEVEL.
func WithLevel(level Level) Option {
	return func(o *options) { o.level = level }
}

// New creates a new logger for a component
func New(component string, opts ...Option) *Logger {
	o := options{
		w:     os.Stderr,
		level: Level(config.Env().LogLevel),
	}
	for _, opt := range opts {
		opt(&o)
	}

	h := slog.NewJSONHandler(o.w, &slog.HandlerOptions{Level: o.level.slogLevel()})
	return &Logger{
		component: component,
		out:       slog.New(h).With(slog.String("component", component)),
	}
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return New("discard", WithOutput(io.Discard), WithLevel(LevelError))
}

// WithBuild tags every line with a cache build identifier.
func (l *Logger) WithBuild(build string) *Logger {
	return &Logger{
		component: l.component,
		build:     build,
		out:       l.out.With(slog.String("build", build)),
	}
}

// Component returns the component name.
func (l *Logger) Component() string {
	return l.component
}

// log emits a structured log event
func (l *Logger) log(level slog.Level, event string, extra map[string]interface{}, err error, attrs ...slog.Attr) {
	ctx := context.Background()
	if !l.out.Enabled(ctx, level) {
		return
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	// Sorted keys keep lines stable for grepping and tests.
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, extra[k]))
	}

	l.out.LogAttrs(ctx, level, event, attrs...)
}

// Debug logs a debug event
func (l *Logger) Debug(event string, extra map[string]interface{}) {
	l.log(slog.LevelDebug, event, extra, nil)
}

// Info logs an info event
func (l *Logger) Info(event string, extra map[string]interface{}) {
	l.log(slog.LevelInfo, event, extra, nil)
}

// Warn logs a warning event
func (l *Logger) Warn(event string, extra map[string]interface{}, err error) {
	l.log(slog.LevelWarn, event, extra, err)
}

// Error logs an error event
func (l *Logger) Error(event string, extra map[string]interface{}, err error) {
	l.log(slog.LevelError, event, extra, err)
}

// TimedEvent logs an event with duration
func (l *Logger) TimedEvent(event string, start time.Time, extra map[string]interface{}) {
	l.log(slog.LevelInfo, event, extra, nil, slog.Int64("duration_ms", time.Since(start).Milliseconds()))
}
