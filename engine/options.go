package engine

import (
	"runtime"

	"go.uber.org/zap"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for Summarize() and Compare()
// ============================================================================

// Option configures pipeline behavior via functional options pattern.
type Option func(*config)

type config struct {
	Thresholds Thresholds
	Logger     *zap.Logger
	Workers    int // max concurrent series in Compare
}

// WithThresholds overrides the classification cutoffs.
func WithThresholds(t Thresholds) Option {
	return func(c *config) {
		c.Thresholds = t
	}
}

// WithLogger sets the logger for stage diagnostics. Nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithWorkers bounds how many series Compare evaluates at once.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.Workers = n
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Thresholds: DefaultThresholds(),
		Logger:     zap.NewNop(),
		Workers:    runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
