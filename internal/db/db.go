package db

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/ftquery/internal/wire"
)

// Store is the database facade used by the composition root.
type Store interface {
	Pinger
	Executor
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Executor runs a compiled command. args[0] is the command name; the
// reply tree is returned untouched for the decoders.
type Executor interface {
	Execute(ctx context.Context, args wire.Args) (rueidis.RedisMessage, error)
}
