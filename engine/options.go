package engine

import "go.uber.org/zap"

// ============================================================================
// ENGINE OPTIONS — Functional options for Compile()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Logger    *zap.Logger
	Separator string // joins column value labels and metric label in headers
	NullLabel string // label rendered for null dimension values
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithSeparator sets the header separator, e.g. "CA/Impressions".
func WithSeparator(sep string) Option {
	return func(c *config) {
		c.Separator = sep
	}
}

// WithNullLabel sets the label shown for null dimension values.
func WithNullLabel(label string) Option {
	return func(c *config) {
		c.NullLabel = label
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Logger:    zap.NewNop(),
		Separator: "/",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
