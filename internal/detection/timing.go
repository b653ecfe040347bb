package detection

import (
	"context"
	"math"
	"sync"
	"time"
)

// TimingTracker remembers when each client key last submitted a capture.
type TimingTracker interface {
	RecordRequest(ctx context.Context, key string, at time.Time) error
	LastRequest(ctx context.Context, key string) (time.Time, bool, error)
}

// MemoryTimingTracker keeps timestamps in process. Use RedisTimingTracker
// when several server replicas share traffic.
type MemoryTimingTracker struct {
	mu   sync.RWMutex
	last map[string]time.Time
}

func NewMemoryTimingTracker() *MemoryTimingTracker {
	return &MemoryTimingTracker{last: make(map[string]time.Time)}
}

func (t *MemoryTimingTracker) RecordRequest(_ context.Context, key string, at time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[key] = at
	return nil
}

func (t *MemoryTimingTracker) LastRequest(_ context.Context, key string) (time.Time, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	at, ok := t.last[key]
	return at, ok, nil
}

// intervalPrecision returns the coarsest round step the interval lands on
// exactly. Scripted clients tend to sleep for round durations.
func intervalPrecision(ms int64) int {
	if ms <= 0 {
		return 0
	}
	for _, step := range []int64{1000, 500, 100, 50, 10} {
		if ms%step == 0 {
			return int(step)
		}
	}
	return 0
}

func payloadEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var freq [256]int
	for _, b := range data {
		freq[b]++
	}
	n := float64(len(data))
	var h float64
	for _, count := range freq {
		if count == 0 {
			continue
		}
		p := float64(count) / n
		h -= p * math.Log2(p)
	}
	return h
}
