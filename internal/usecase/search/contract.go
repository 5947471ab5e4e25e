package search

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ftquery/internal/wire"
)

// Executor runs compiled FT commands against the engine.
type Executor interface {
	Execute(ctx context.Context, args wire.Args) (rueidis.RedisMessage, error)
}
