package seenids

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestMemoryFirstSighting(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	fresh, err := m.CheckAndMark(ctx, "ofac_sdn_12345")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fresh {
		t.Fatal("first sighting must be fresh")
	}

	fresh, err = m.CheckAndMark(ctx, "ofac_sdn_12345")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh {
		t.Fatal("second sighting must be a duplicate")
	}
}

func TestMemoryConcurrentSingleWinner(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	var winners int64
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fresh, _ := m.CheckAndMark(ctx, "same-id")
			if fresh {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}

type mockSetNX struct {
	fn func(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}

func (m *mockSetNX) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return m.fn(ctx, key, value, ttl)
}

func TestPersistentPrefixesKeys(t *testing.T) {
	var gotKey string
	var gotTTL time.Duration
	p := NewPersistent(&mockSetNX{
		fn: func(_ context.Context, key string, _ []byte, ttl time.Duration) (bool, error) {
			gotKey = key
			gotTTL = ttl
			return true, nil
		},
	}, 7*24*time.Hour, zap.NewNop())

	fresh, err := p.CheckAndMark(context.Background(), "etherscan_tx_0xabc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fresh {
		t.Fatal("expected fresh")
	}
	if gotKey != "reguwatch:seen:etherscan_tx_0xabc" {
		t.Errorf("unexpected key: %s", gotKey)
	}
	if gotTTL != 7*24*time.Hour {
		t.Errorf("unexpected ttl: %s", gotTTL)
	}
}

func TestPersistentDuplicate(t *testing.T) {
	p := NewPersistent(&mockSetNX{
		fn: func(_ context.Context, _ string, _ []byte, _ time.Duration) (bool, error) {
			return false, nil
		},
	}, time.Hour, zap.NewNop())

	fresh, err := p.CheckAndMark(context.Background(), "id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh {
		t.Fatal("expected duplicate")
	}
}

func TestPersistentStoreErrorAdmits(t *testing.T) {
	p := NewPersistent(&mockSetNX{
		fn: func(_ context.Context, _ string, _ []byte, _ time.Duration) (bool, error) {
			return false, errors.New("connection refused")
		},
	}, time.Hour, zap.NewNop())

	fresh, err := p.CheckAndMark(context.Background(), "id")
	if err != nil {
		t.Fatalf("store errors must not propagate: %v", err)
	}
	if !fresh {
		t.Fatal("store failure must admit the document")
	}
}
