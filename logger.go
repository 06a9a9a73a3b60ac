package tinygraph

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with tinygraph-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithGraph adds a graph name field to the logger.
func (l *Logger) WithGraph(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("graph", name),
	}
}

// WithNode adds a node index field to the logger.
func (l *Logger) WithNode(node int) *Logger {
	return &Logger{
		Logger: l.Logger.With("node", node),
	}
}

// LogAllocate logs the outcome of an allocation pass.
func (l *Logger) LogAllocate(graph string, usedBytes int, err error) {
	if err != nil {
		l.Error("allocation failed",
			"graph", graph,
			"error", err,
		)
	} else {
		l.Debug("allocation completed",
			"graph", graph,
			"arena_used_bytes", usedBytes,
		)
	}
}

// LogInvoke logs the outcome of one invocation.
func (l *Logger) LogInvoke(graph string, nodes int, err error) {
	if err != nil {
		l.Error("invoke failed",
			"graph", graph,
			"error", err,
		)
	} else {
		l.Debug("invoke completed",
			"graph", graph,
			"nodes", nodes,
		)
	}
}
