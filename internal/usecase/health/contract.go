package health

import "context"

// DBPinger checks engine availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}
