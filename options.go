package ftquery

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	addrs    []string
	username string
	password string
	db       int

	readinessTimeout time.Duration

	defaultDialect  int
	cursorReadCount int
	infoCacheSize   int
	infoCacheTTL    time.Duration

	logger *zap.Logger
}

// WithRedis connects to a single Redis instance with the search module loaded.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithAddrs sets the seed addresses (cluster or sentinel-less replicas).
func WithAddrs(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = addrs
	})
}

// WithAuth sets ACL credentials.
func WithAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
		c.password = password
	})
}

// WithDB selects the logical database.
func WithDB(db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.db = db
	})
}

// WithReadinessTimeout bounds how long New waits for the server. Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithDefaultDialect applies dialect d to every request that does not set
// its own. Default: none.
func WithDefaultDialect(d int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultDialect = d
	})
}

// WithCursorReadCount sets the batch size AggregateEach asks for on each
// FT.CURSOR READ. Default: the count the cursor was created with.
func WithCursorReadCount(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cursorReadCount = n
	})
}

// WithInfoCache caches FT.INFO snapshots per index. Disabled by default.
func WithInfoCache(size int, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.infoCacheSize = size
		c.infoCacheTTL = ttl
	})
}

// WithLogger enables debug logging of executed commands.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
