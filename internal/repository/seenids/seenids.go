// Package seenids tracks which document IDs have already been ingested.
// The check is an atomic test-and-set so two sources racing on the same
// ID admit exactly one copy.
package seenids

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SeenStore records document IDs and reports first sightings.
type SeenStore interface {
	// CheckAndMark marks id as seen and reports whether it was new.
	CheckAndMark(ctx context.Context, id string) (bool, error)
}

// Memory is a process-local SeenStore. IDs live until restart.
type Memory struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemory creates an in-memory seen-ID store.
func NewMemory() *Memory {
	return &Memory{seen: make(map[string]struct{})}
}

// CheckAndMark implements SeenStore.
func (m *Memory) CheckAndMark(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[id]; ok {
		return false, nil
	}
	m.seen[id] = struct{}{}
	return true, nil
}

// Len reports the number of tracked IDs.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

const keyPrefix = "reguwatch:seen:"

// setNXStore is the consumer interface for the persistent store (ISP).
type setNXStore interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}

// Persistent is a SeenStore backed by a key-value store with SET NX
// semantics. The TTL bounds growth: an ID re-surfacing after expiry is
// ingested again, which is acceptable for slow-moving regulatory feeds.
type Persistent struct {
	store  setNXStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewPersistent creates a store-backed seen-ID tracker.
func NewPersistent(s setNXStore, ttl time.Duration, logger *zap.Logger) *Persistent {
	return &Persistent{store: s, ttl: ttl, logger: logger}
}

// CheckAndMark implements SeenStore. A store failure admits the
// document rather than dropping it: a duplicate beats a lost record.
func (p *Persistent) CheckAndMark(ctx context.Context, id string) (bool, error) {
	set, err := p.store.SetNX(ctx, keyPrefix+id, []byte("1"), p.ttl)
	if err != nil {
		p.logger.Warn("seen-id check failed, admitting document", zap.String("id", id), zap.Error(err))
		return true, nil
	}
	return set, nil
}
