package domain

import (
	"context"
	"io"
	"time"
)

// SnapshotStore persists the pool's scalar state and per-account rows so a
// restarted node can rehydrate the in-memory ledger. Writes happen after a
// transition has committed; the store is never the arbiter of validity.
type SnapshotStore interface {
	SavePoolState(ctx context.Context, state PoolState) error
	LoadPoolState(ctx context.Context) (PoolState, error)
	UpsertAccount(ctx context.Context, row AccountState) error
	ListAccounts(ctx context.Context) ([]AccountState, error)
}

// DistributionStore persists the append-only yield distribution history.
type DistributionStore interface {
	Insert(ctx context.Context, d Distribution) error
	List(ctx context.Context, opts ListOpts) ([]Distribution, error)
}

// EventStore persists the append-only pool event log.
type EventStore interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context, opts ListOpts) ([]Event, error)
	// ListBefore returns events created strictly before the cutoff, oldest
	// first. Used by the archiver.
	ListBefore(ctx context.Context, before time.Time) ([]Event, error)
	// DeleteBefore removes events created strictly before the cutoff and
	// returns the number of rows removed. Called only after a successful
	// archive upload.
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// StatsCache caches the aggregate pool stats for cheap read queries.
type StatsCache interface {
	SetStats(ctx context.Context, stats PoolStats) error
	// GetStats returns ErrNotFound when no snapshot is cached.
	GetStats(ctx context.Context) (PoolStats, error)
}

// SignalBus publishes committed pool events to external subscribers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter answers whether a keyed request fits under a rate limit.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// BlobWriter uploads a blob to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver moves aged event-log rows into object storage.
type Archiver interface {
	// ArchiveEvents archives all events older than the cutoff and returns
	// the number archived.
	ArchiveEvents(ctx context.Context, before time.Time) (int, error)
}
