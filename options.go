package pathoram

import "go.uber.org/zap"

// defaultStashLimit is the advisory soft bound applied when a Client
// is constructed without WithStashLimit. It's deliberately generous —
// StashOverflow never aborts an access (SPEC_FULL.md §7) — and exists
// mainly so the metric/log fires at a meaningful threshold rather than
// never.
const defaultStashLimit = 64

// clientConfig holds the options a Client is built with.
type clientConfig struct {
	logger           *zap.Logger
	metrics          *Metrics
	stashLimit       int
	evictionStrategy EvictionStrategy
}

// Option configures a Client at construction time.
type Option func(*clientConfig)

// WithLogger attaches a structured logger. The client logs integrity
// failures and stash-overflow advisories through it. A nil logger (or
// no WithLogger option at all) falls back to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics attaches a Metrics sink built by NewMetrics. Without
// this option, metrics recording is a no-op.
func WithMetrics(m *Metrics) Option {
	return func(c *clientConfig) {
		c.metrics = m
	}
}

// WithStashLimit overrides the advisory stash-size soft bound used for
// the StashOverflow log/metric (never an aborting error).
func WithStashLimit(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.stashLimit = n
		}
	}
}

// WithEvictionStrategy overrides the default leaf-to-root placement
// order used by Client.evict. See EvictLevelByLevel, EvictGreedyByDepth,
// and EvictConstantTime in evict.go.
func WithEvictionStrategy(s EvictionStrategy) Option {
	return func(c *clientConfig) {
		c.evictionStrategy = s
	}
}

func newClientConfig(opts []Option) *clientConfig {
	c := &clientConfig{
		logger:           zap.NewNop(),
		stashLimit:       defaultStashLimit,
		evictionStrategy: EvictLevelByLevel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
