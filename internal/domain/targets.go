package domain

import (
	"sort"
	"strings"
	"sync"
)

// TargetSet is the live set of monitored wallet addresses. Addresses are
// normalized to lower case on insert. Reads from the alerting path run
// concurrently with adds from the API, so access is RWMutex-guarded.
type TargetSet struct {
	mu    sync.RWMutex
	addrs map[string]struct{}
}

// NewTargetSet creates an empty target set.
func NewTargetSet() *TargetSet {
	return &TargetSet{addrs: make(map[string]struct{})}
}

// Add registers an address for monitoring. Idempotent.
func (t *TargetSet) Add(address string) {
	addr := strings.ToLower(strings.TrimSpace(address))
	if addr == "" {
		return
	}
	t.mu.Lock()
	t.addrs[addr] = struct{}{}
	t.mu.Unlock()
}

// Contains reports whether the address is monitored (case-insensitive).
func (t *TargetSet) Contains(address string) bool {
	t.mu.RLock()
	_, ok := t.addrs[strings.ToLower(address)]
	t.mu.RUnlock()
	return ok
}

// List returns the monitored addresses in sorted order.
func (t *TargetSet) List() []string {
	t.mu.RLock()
	out := make([]string, 0, len(t.addrs))
	for a := range t.addrs {
		out = append(out, a)
	}
	t.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Len returns the number of monitored addresses.
func (t *TargetSet) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.addrs)
}
