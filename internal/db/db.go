package db

import (
	"context"
	"time"
)

// Store is the key-value database facade used by the embedding cache and
// the persistent dedup set. The whole pipeline runs without it; consumers
// depend on the narrow sub-interfaces they need.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores the value only if the key does not exist yet and
	// reports whether it was set. With ttl > 0 the key expires.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}
