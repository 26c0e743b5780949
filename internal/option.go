package internal

import "log/slog"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	logger *slog.Logger
	ready  func(addr string)
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger replaces the JSON stdout logger Run builds by default.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}

// WithReadyHook is called with the listener address once the HTTP server
// accepts connections.
func WithReadyHook(fn func(addr string)) Option {
	return func(a *application) {
		a.ready = fn
	}
}
