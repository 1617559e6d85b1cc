// Package logging provides a tiny abstraction over slog so downstream code can
// depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer RuntimeLogger with contextual
// helpers (agent, room, component) and domain specific logging helpers for
// providers, actions and model calls.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a case-insensitive level name. Unknown names yield info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger defines the minimal logging interface used across the runtime.
// Arguments after msg are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// OrNoop returns l, or a NoOpLogger when l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return l
}

// RuntimeLogger wraps slog.Logger adding contextual cloning helpers and
// domain convenience methods. It should be cheap to copy via With* methods.
type RuntimeLogger struct {
	logger    *slog.Logger
	level     LogLevel
	context   map[string]any
	component string
	agentID   string
	roomID    string
}

// LoggerConfig configures construction of a RuntimeLogger.
type LoggerConfig struct {
	Level       LogLevel
	Format      string // json or text
	Output      io.Writer
	AddSource   bool
	Component   string
	AgentID     string
	CustomAttrs map[string]any
}

// DefaultLoggerConfig returns a baseline JSON info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stderr, CustomAttrs: map[string]any{}}
}

// NewLogger builds a RuntimeLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *RuntimeLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	ctxAttrs := make(map[string]any, len(cfg.CustomAttrs))
	for k, v := range cfg.CustomAttrs {
		ctxAttrs[k] = v
	}
	return &RuntimeLogger{logger: slog.New(handler), level: cfg.Level, context: ctxAttrs, component: cfg.Component, agentID: cfg.AgentID}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *RuntimeLogger) clone() *RuntimeLogger {
	nl := *l
	nl.context = make(map[string]any, len(l.context))
	for k, v := range l.context {
		nl.context[k] = v
	}
	return &nl
}

// WithContext adds a key/value attribute that will be attached to every log entry.
func (l *RuntimeLogger) WithContext(key string, value any) *RuntimeLogger {
	nl := l.clone()
	nl.context[key] = value
	return nl
}

// WithComponent sets the logical component (composer, dispatcher, gateway, etc.).
func (l *RuntimeLogger) WithComponent(c string) *RuntimeLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithRoom attaches agent and room identifiers.
func (l *RuntimeLogger) WithRoom(agentID, roomID string) *RuntimeLogger {
	nl := l.clone()
	nl.agentID = agentID
	nl.roomID = roomID
	return nl
}

func (l *RuntimeLogger) buildAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(l.context)+3)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.agentID != "" {
		attrs = append(attrs, slog.String("agent_id", l.agentID))
	}
	if l.roomID != "" {
		attrs = append(attrs, slog.String("room_id", l.roomID))
	}
	for k, v := range l.context {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func (l *RuntimeLogger) log(level slog.Level, allowed bool, msg string, args ...any) {
	if !allowed {
		return
	}
	attrs := l.buildAttrs()
	attrs = append(attrs, argsToAttrs(args)...)
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// argsToAttrs converts alternating key/value pairs; a dangling value is
// recorded under "!BADKEY" like slog does.
func argsToAttrs(args []any) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(args)/2+1)
	for i := 0; i < len(args); i++ {
		key, ok := args[i].(string)
		if !ok || i+1 >= len(args) {
			attrs = append(attrs, slog.Any("!BADKEY", args[i]))
			continue
		}
		attrs = append(attrs, slog.Any(key, args[i+1]))
		i++
	}
	return attrs
}

// Debug logs at debug level.
func (l *RuntimeLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, msg, args...)
}

// Info logs at info level.
func (l *RuntimeLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *RuntimeLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, l.level <= LogLevelWarn, msg, args...)
}

// Error logs at error level.
func (l *RuntimeLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, l.level <= LogLevelError, msg, args...)
}

// LogProviderCall records the outcome of one provider Get during composition.
func (l *RuntimeLogger) LogProviderCall(provider string, dur time.Duration, err error) {
	l.logOutcome(slog.LevelDebug, "state.provider.executed", "state.provider.error", err,
		slog.String("provider", provider), slog.Int64("duration_ms", dur.Milliseconds()))
}

// LogActionCall records execution details for an action handler invocation.
// A result reporting failure without an error is logged as failed.
func (l *RuntimeLogger) LogActionCall(action string, dur time.Duration, success bool, err error) {
	if err == nil && !success {
		err = fmt.Errorf("action %s reported failure", action)
	}
	l.logOutcome(slog.LevelInfo, "action.executed", "action.failed", err,
		slog.String("action", action), slog.Int64("duration_ms", dur.Milliseconds()), slog.Bool("success", err == nil))
}

// LogModelCall records model call latency and success.
func (l *RuntimeLogger) LogModelCall(modelType, provider string, dur time.Duration, err error) {
	l.logOutcome(slog.LevelDebug, "model.call.completed", "model.call.failed", err,
		slog.String("model_type", modelType), slog.String("provider", provider), slog.Int64("duration_ms", dur.Milliseconds()))
}

func (l *RuntimeLogger) logOutcome(okLevel slog.Level, okMsg, failMsg string, err error, extra ...slog.Attr) {
	level, msg := okLevel, okMsg
	if err != nil {
		extra = append(extra, slog.String("error", err.Error()))
		level, msg = slog.LevelError, failMsg
	}
	if level < slogLevel(l.level) || !l.logger.Enabled(context.Background(), level) {
		return
	}
	attrs := l.buildAttrs()
	attrs = append(attrs, extra...)
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// CallLogger records provider, action and model calls. *RuntimeLogger
// implements it.
type CallLogger interface {
	LogProviderCall(provider string, dur time.Duration, err error)
	LogActionCall(action string, dur time.Duration, success bool, err error)
	LogModelCall(modelType, provider string, dur time.Duration, err error)
}

// Calls returns l as a CallLogger. Loggers without call helpers are adapted
// and receive the same messages as key/value pairs.
func Calls(l Logger) CallLogger {
	l = OrNoop(l)
	if cl, ok := l.(CallLogger); ok {
		return cl
	}
	return callAdapter{l}
}

type callAdapter struct{ Logger }

func (a callAdapter) LogProviderCall(provider string, dur time.Duration, err error) {
	if err != nil {
		a.Error("state.provider.error", "provider", provider, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	a.Debug("state.provider.executed", "provider", provider, "duration_ms", dur.Milliseconds())
}

func (a callAdapter) LogActionCall(action string, dur time.Duration, success bool, err error) {
	if err == nil && !success {
		err = fmt.Errorf("action %s reported failure", action)
	}
	if err != nil {
		a.Error("action.failed", "action", action, "duration_ms", dur.Milliseconds(), "success", false, "error", err.Error())
		return
	}
	a.Info("action.executed", "action", action, "duration_ms", dur.Milliseconds(), "success", true)
}

func (a callAdapter) LogModelCall(modelType, provider string, dur time.Duration, err error) {
	if err != nil {
		a.Error("model.call.failed", "model_type", modelType, "provider", provider, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	a.Debug("model.call.completed", "model_type", modelType, "provider", provider, "duration_ms", dur.Milliseconds())
}

// With attaches key/value pairs to every entry logged through the result.
func With(l Logger, args ...any) Logger {
	l = OrNoop(l)
	if len(args) == 0 {
		return l
	}
	if rl, ok := l.(*RuntimeLogger); ok {
		for _, attr := range argsToAttrs(args) {
			rl = rl.WithContext(attr.Key, attr.Value.Any())
		}
		return rl
	}
	if _, ok := l.(NoOpLogger); ok {
		return l
	}
	return &withLogger{Logger: l, args: args}
}

// ForComponent scopes l to a runtime component.
func ForComponent(l Logger, component string) Logger {
	if rl, ok := l.(*RuntimeLogger); ok {
		return rl.WithComponent(component)
	}
	return With(l, "component", component)
}

// ForRoom scopes l to an agent and room.
func ForRoom(l Logger, agentID, roomID string) Logger {
	if rl, ok := l.(*RuntimeLogger); ok {
		return rl.WithRoom(agentID, roomID)
	}
	return With(l, "agent_id", agentID, "room_id", roomID)
}

type withLogger struct {
	Logger
	args []any
}

func (w *withLogger) merge(args []any) []any {
	return append(append(make([]any, 0, len(w.args)+len(args)), w.args...), args...)
}

func (w *withLogger) Debug(msg string, args ...any) { w.Logger.Debug(msg, w.merge(args)...) }
func (w *withLogger) Info(msg string, args ...any)  { w.Logger.Info(msg, w.merge(args)...) }
func (w *withLogger) Warn(msg string, args ...any)  { w.Logger.Warn(msg, w.merge(args)...) }
func (w *withLogger) Error(msg string, args ...any) { w.Logger.Error(msg, w.merge(args)...) }

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// NewSlogLogger creates a new RuntimeLogger with the specified configuration.
func NewSlogLogger(level LogLevel, format string, addSource bool) *RuntimeLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}
