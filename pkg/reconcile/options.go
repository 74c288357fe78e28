package reconcile

import "log/slog"

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger to the engine. Nil loggers are
// ignored, keeping the discard default.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}
