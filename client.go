package ftquery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ftquery/internal/db"
	dbRedis "github.com/kailas-cloud/ftquery/internal/db/redis"
	"github.com/kailas-cloud/ftquery/internal/domain"
	"github.com/kailas-cloud/ftquery/internal/logger"
	searchuc "github.com/kailas-cloud/ftquery/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Client executes queries and aggregations against a search-enabled Redis.
// Safe for concurrent use; builders passed to it are not.
type Client struct {
	store  db.Store
	svc    *searchuc.Service
	logger *zap.Logger
}

// New creates a Client and waits until the server answers PING.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{readinessTimeout: defaultReadinessTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("ftquery: address required (use WithRedis or WithAddrs)")
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Username: cfg.username,
		Password: cfg.password,
		DB:       cfg.db,
	})
	if err != nil {
		return nil, fmt.Errorf("ftquery: create redis store: %w", err)
	}

	if err := store.WaitForReady(context.Background(), cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("ftquery: database not ready: %w", err)
	}

	return newClient(store, cfg), nil
}

func validate(cfg *clientConfig) error {
	if cfg.defaultDialect != 0 {
		if err := domain.ValidateDialect(cfg.defaultDialect); err != nil {
			return fmt.Errorf("ftquery: default dialect: %w", err)
		}
	}
	if cfg.cursorReadCount < 0 || cfg.infoCacheSize < 0 {
		return fmt.Errorf("ftquery: %w: cursor read count and info cache size must not be negative",
			domain.ErrInvalidArgument)
	}
	return nil
}

func newClient(store db.Store, cfg *clientConfig) *Client {
	return &Client{
		store: store,
		svc: searchuc.New(store, searchuc.Config{
			DefaultDialect:  cfg.defaultDialect,
			CursorReadCount: cfg.cursorReadCount,
			InfoCacheSize:   cfg.infoCacheSize,
			InfoCacheTTL:    cfg.infoCacheTTL,
		}),
		logger: cfg.logger,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search runs q against index.
func (c *Client) Search(ctx context.Context, index string, q *Query) (*SearchResult, error) {
	return c.svc.Search(c.ctx(ctx), index, q)
}

// Aggregate runs agg against index. With a cursor, only the first batch is
// returned; continue with ReadCursor or use AggregateEach.
func (c *Client) Aggregate(ctx context.Context, index string, agg *Aggregation) (*AggregationResult, error) {
	return c.svc.Aggregate(c.ctx(ctx), index, agg)
}

// AggregateEach runs agg and calls fn for every batch until the cursor is
// exhausted or fn returns false. A cursor left open by an early stop is deleted.
func (c *Client) AggregateEach(
	ctx context.Context, index string, agg *Aggregation,
	fn func(*AggregationResult) (bool, error),
) error {
	return c.svc.AggregateEach(c.ctx(ctx), index, agg, fn)
}

// ReadCursor reads the next batch of cursorID. count <= 0 keeps the cursor's count.
func (c *Client) ReadCursor(ctx context.Context, index string, cursorID int64, count int) (*AggregationResult, error) {
	return c.svc.ReadCursor(c.ctx(ctx), index, cursorID, count)
}

// DeleteCursor releases cursorID on the server.
func (c *Client) DeleteCursor(ctx context.Context, index string, cursorID int64) error {
	return c.svc.DeleteCursor(c.ctx(ctx), index, cursorID)
}

// Info returns the FT.INFO snapshot of index.
func (c *Client) Info(ctx context.Context, index string) (Info, error) {
	return c.svc.Info(c.ctx(ctx), index)
}

// ctx attaches the configured logger.
func (c *Client) ctx(ctx context.Context) context.Context {
	if c.logger == nil {
		return ctx
	}
	return logger.ContextWithLogger(ctx, c.logger)
}
