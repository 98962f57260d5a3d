package dirpack

import "log/slog"

// createConfig holds configuration for one archive creation run.
type createConfig struct {
	progress  ProgressFunc
	logger    *slog.Logger
	enumerate Enumerator
}

// CreateOption configures archive creation.
type CreateOption func(*createConfig)

// CreateWithProgress sets a callback receiving a ProgressEvent after each
// written entry.
func CreateWithProgress(fn ProgressFunc) CreateOption {
	return func(cfg *createConfig) {
		cfg.progress = fn
	}
}

// CreateWithLogger sets the logger for creation diagnostics. Without it,
// logging is discarded.
func CreateWithLogger(logger *slog.Logger) CreateOption {
	return func(cfg *createConfig) {
		cfg.logger = logger
	}
}

// CreateWithEnumerator replaces the default directory walker. The
// enumerator must return slash-separated root-relative candidates and is
// expected to skip entries it cannot read rather than failing the walk.
func CreateWithEnumerator(fn Enumerator) CreateOption {
	return func(cfg *createConfig) {
		cfg.enumerate = fn
	}
}
