package tinygraph

import (
	"log/slog"
)

type options struct {
	logger      *Logger
	profiler    Profiler
	diagnostics bool
}

// Option configures Interpreter behavior.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithProfiler attaches a profiler that receives one BeginEvent/EndEvent
// pair per invoked node. Pass nil to disable profiling.
func WithProfiler(p Profiler) Option {
	return func(o *options) {
		if p == nil {
			p = NoopProfiler{}
		}
		o.profiler = p
	}
}

// WithDiagnostics toggles the diagnostic surface. When disabled, the
// interpreter emits no descriptive log output and suppresses profiler
// events; errors still carry their status values.
func WithDiagnostics(enabled bool) Option {
	return func(o *options) {
		o.diagnostics = enabled
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:      NoopLogger(),
		profiler:    NoopProfiler{},
		diagnostics: true,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
