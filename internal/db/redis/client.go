package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ftquery/internal/db"
	"github.com/kailas-cloud/ftquery/internal/domain"
	"github.com/kailas-cloud/ftquery/internal/wire"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// Store implements db.Store via rueidis for Redis with the search module.
type Store struct {
	client rueidis.Client
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // decoders expect RESP2 arrays for FT.SEARCH / FT.AGGREGATE
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client}, nil
}

// Execute sends args as a single command and returns the raw reply.
// Server errors are wrapped in *db.Error; known ones also match domain sentinels.
func (s *Store) Execute(ctx context.Context, args wire.Args) (rueidis.RedisMessage, error) {
	if len(args) == 0 {
		return rueidis.RedisMessage{}, errors.New("empty command")
	}
	strs := args.Strings()

	cmd := s.b().Arbitrary(strs[0]).Args(strs[1:]...).Build()
	msg, err := s.do(ctx, cmd).ToMessage()
	if err != nil {
		return rueidis.RedisMessage{}, &db.Error{Op: strs[0], Err: classify(err)}
	}
	return msg, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

// classify tags well-known search module errors with domain sentinels.
func classify(err error) error {
	switch {
	case isRedisErr(err, "unknown index name"), isRedisErr(err, "no such index"):
		return fmt.Errorf("%w: %w", domain.ErrIndexNotFound, err)
	case isRedisErr(err, "cursor not found"):
		return fmt.Errorf("%w: %w", domain.ErrCursorNotFound, err)
	}
	return err
}

// isRedisErr checks if err is a Redis server error containing substr (case-insensitive).
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
