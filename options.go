package cascade

import (
	"go.uber.org/zap"
)

// DefaultMaxConcurrency bounds the number of goroutines a graph runs for
// fork siblings at any one time when WithMaxConcurrency is not given.
const DefaultMaxConcurrency = 256

type config struct {
	name           string
	logger         *zap.Logger
	metrics        *Metrics
	maxConcurrency int
}

// Option is a functional option for configuring a graph created with New.
type Option func(*config)

// WithName names the graph. The name is attached to log entries, metric
// series and callback errors.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithLogger sets the logger the graph reports to. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records graph activity into m.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithMaxConcurrency bounds how many fork siblings may run on their own
// goroutine across the whole graph. When the bound is reached further
// siblings run on the goroutine that forked them. Values <= 0 select
// DefaultMaxConcurrency.
func WithMaxConcurrency(n int) Option {
	return func(c *config) {
		c.maxConcurrency = n
	}
}

func newConfig(opts []Option) config {
	c := config{
		logger:         zap.NewNop(),
		maxConcurrency: DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.maxConcurrency <= 0 {
		c.maxConcurrency = DefaultMaxConcurrency
	}
	return c
}
