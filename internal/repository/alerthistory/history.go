// Package alerthistory keeps the most recent alerts in a fixed-size
// ring buffer so the alerts API stays bounded regardless of uptime.
package alerthistory

import (
	"strings"
	"sync"

	"github.com/kailas-cloud/reguwatch/internal/domain"
)

// DefaultCapacity matches the alerts API page size.
const DefaultCapacity = 100

// History is a concurrency-safe ring buffer of alerts.
type History struct {
	mu       sync.RWMutex
	buf      []domain.Alert
	start    int
	count    int
	appended int
}

// New creates a history with the given capacity; non-positive values
// fall back to DefaultCapacity.
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{buf: make([]domain.Alert, capacity)}
}

// Append records an alert, evicting the oldest when full.
func (h *History) Append(a domain.Alert) {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := (h.start + h.count) % len(h.buf)
	h.buf[idx] = a
	if h.count < len(h.buf) {
		h.count++
	} else {
		h.start = (h.start + 1) % len(h.buf)
	}
	h.appended++
}

// Recent returns up to limit alerts, newest first. limit <= 0 returns
// everything retained.
func (h *History) Recent(limit int) []domain.Alert {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := h.count
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]domain.Alert, 0, n)
	for i := 0; i < n; i++ {
		idx := (h.start + h.count - 1 - i) % len(h.buf)
		out = append(out, h.buf[idx])
	}
	return out
}

// ByTarget returns up to limit retained alerts whose wallet address
// matches, case-insensitively, newest first. limit <= 0 returns every
// match.
func (h *History) ByTarget(address string, limit int) []domain.Alert {
	want := strings.ToLower(strings.TrimSpace(address))

	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]domain.Alert, 0)
	for i := 0; i < h.count; i++ {
		idx := (h.start + h.count - 1 - i) % len(h.buf)
		if strings.ToLower(h.buf[idx].WalletAddress) == want {
			out = append(out, h.buf[idx])
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out
}

// Len reports the number of retained alerts.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// TotalAppended reports the lifetime number of alerts recorded,
// including evicted ones.
func (h *History) TotalAppended() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.appended
}
