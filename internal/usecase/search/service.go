package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ftquery/internal/db"
	"github.com/kailas-cloud/ftquery/internal/domain"
	"github.com/kailas-cloud/ftquery/internal/domain/search/aggregate"
	"github.com/kailas-cloud/ftquery/internal/domain/search/query"
	"github.com/kailas-cloud/ftquery/internal/domain/search/result"
	"github.com/kailas-cloud/ftquery/internal/logger"
	"github.com/kailas-cloud/ftquery/internal/metrics"
	"github.com/kailas-cloud/ftquery/internal/wire"
)

const releaseTimeout = 5 * time.Second

// Config holds execution settings for the service.
type Config struct {
	// DefaultDialect is applied to requests that set no dialect. 0 disables it.
	DefaultDialect int
	// CursorReadCount is the batch size for FT.CURSOR READ during iteration.
	// 0 keeps the count the cursor was created with.
	CursorReadCount int
	// InfoCacheSize bounds the FT.INFO snapshot cache. 0 disables caching.
	InfoCacheSize int
	InfoCacheTTL  time.Duration
}

// Service compiles requests, executes them and decodes the replies.
// Safe for concurrent use.
type Service struct {
	exec      Executor
	compile   query.CompileOptions
	readCount int
	infoCache *expirable.LRU[string, result.Info]
}

// New creates a search service.
func New(exec Executor, cfg Config) *Service {
	s := &Service{
		exec:      exec,
		compile:   query.CompileOptions{DefaultDialect: cfg.DefaultDialect},
		readCount: cfg.CursorReadCount,
	}
	if cfg.InfoCacheSize > 0 {
		s.infoCache = expirable.NewLRU[string, result.Info](cfg.InfoCacheSize, nil, cfg.InfoCacheTTL)
	}
	return s
}

// Search runs FT.SEARCH on index.
func (s *Service) Search(ctx context.Context, index string, q *query.Query) (*result.SearchResult, error) {
	raw, err := s.execute(ctx, db.OpSearch, index, withIndex(index, q.Args(s.compile)))
	if err != nil {
		return nil, err
	}
	res, err := result.DecodeSearch(raw, q.Shape())
	if err != nil {
		return nil, fmt.Errorf("decode search: %w", err)
	}
	return res, nil
}

// Aggregate runs FT.AGGREGATE on index. When the aggregation requests a
// cursor, the result carries the cursor id for ReadCursor.
func (s *Service) Aggregate(
	ctx context.Context, index string, agg *aggregate.Aggregation,
) (*result.AggregationResult, error) {
	raw, err := s.execute(ctx, db.OpAggregate, index, withIndex(index, agg.Args(s.compile)))
	if err != nil {
		return nil, err
	}
	res, err := result.DecodeAggregation(raw, agg.HasCursor())
	if err != nil {
		return nil, fmt.Errorf("decode aggregate: %w", err)
	}
	return res, nil
}

// ReadCursor fetches the next batch of an open cursor. count <= 0 keeps the
// count the cursor was created with.
func (s *Service) ReadCursor(
	ctx context.Context, index string, cursorID int64, count int,
) (*result.AggregationResult, error) {
	raw, err := s.execute(ctx, db.OpCursor, index, aggregate.CursorReadArgs(index, cursorID, count))
	if err != nil {
		return nil, err
	}
	res, err := result.DecodeCursor(raw)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	return res, nil
}

// DeleteCursor releases an open cursor on the server.
func (s *Service) DeleteCursor(ctx context.Context, index string, cursorID int64) error {
	_, err := s.execute(ctx, db.OpCursor, index, aggregate.CursorDelArgs(index, cursorID))
	return err
}

// Info returns the FT.INFO snapshot of index, served from cache when fresh.
// The returned map is shared with the cache and must not be modified.
func (s *Service) Info(ctx context.Context, index string) (result.Info, error) {
	if s.infoCache != nil {
		if info, ok := s.infoCache.Get(index); ok {
			metrics.InfoCacheTotal.WithLabelValues("hit").Inc()
			return info, nil
		}
		metrics.InfoCacheTotal.WithLabelValues("miss").Inc()
	}

	raw, err := s.execute(ctx, db.OpInfo, index, wire.Args{index})
	if err != nil {
		return nil, err
	}
	info, err := result.DecodeInfo(raw)
	if err != nil {
		return nil, fmt.Errorf("decode info: %w", err)
	}
	if s.infoCache != nil {
		s.infoCache.Add(index, info)
	}
	return info, nil
}

// AggregateEach runs agg and hands every batch to fn, following the cursor
// until it is exhausted. fn returns false to stop early. When iteration ends
// before exhaustion (early stop, fn error, cancelled context, failed read)
// the cursor is deleted, unless the server already reported it gone.
// Aggregations without a cursor deliver a single batch.
func (s *Service) AggregateEach(
	ctx context.Context, index string, agg *aggregate.Aggregation,
	fn func(*result.AggregationResult) (bool, error),
) error {
	res, err := s.Aggregate(ctx, index, agg)
	if err != nil {
		return err
	}

	for {
		more, err := fn(res)
		if err != nil {
			s.release(ctx, index, res)
			return err
		}
		if !more {
			s.release(ctx, index, res)
			return nil
		}
		if res.Exhausted() {
			return nil
		}
		if err = ctx.Err(); err != nil {
			s.release(ctx, index, res)
			return fmt.Errorf("read cursor: %w", err)
		}

		next, err := s.ReadCursor(ctx, index, *res.Cursor, s.readCount)
		if err != nil {
			if !errors.Is(err, domain.ErrCursorNotFound) {
				s.release(ctx, index, res)
			}
			return err
		}
		res = next
	}
}

// release deletes a live cursor on a context that survives cancellation of
// the caller's.
func (s *Service) release(ctx context.Context, index string, res *result.AggregationResult) {
	if res.Exhausted() {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := s.DeleteCursor(rctx, index, *res.Cursor); err != nil {
		logger.FromContext(ctx).Warn("failed to release cursor",
			zap.String("index", index),
			zap.Int64("cursor", *res.Cursor),
			zap.Error(err),
		)
	}
}

// execute prefixes the command name, runs it and records the outcome.
func (s *Service) execute(ctx context.Context, op, index string, args wire.Args) (rueidis.RedisMessage, error) {
	cmd := make(wire.Args, 0, len(args)+1)
	cmd = append(cmd, op)
	cmd = append(cmd, args...)

	start := time.Now()
	raw, err := s.exec.Execute(ctx, cmd)
	metrics.ObserveCommand(op, start, err)

	logger.FromContext(ctx).Debug("ft command",
		zap.String("command", op),
		zap.String("index", index),
		zap.Int("args", len(cmd)),
		zap.Duration("took", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		return rueidis.RedisMessage{}, fmt.Errorf("index %s: %w", index, err)
	}
	return raw, nil
}

func withIndex(index string, args wire.Args) wire.Args {
	out := make(wire.Args, 0, len(args)+1)
	out = append(out, index)
	return append(out, args...)
}
