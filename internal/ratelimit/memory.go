package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultIdleTTL    = 10 * time.Minute
	defaultSweepEvery = time.Minute
)

// MemoryStore is a per-process Limiter: one token bucket per key, with buckets idle
// longer than idleTTL swept in the background. Use Redis when several API replicas
// must share counts.
type MemoryStore struct {
	limit      rate.Limit
	burst      int
	idleTTL    time.Duration
	sweepEvery time.Duration
	now        func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	*rate.Limiter
	seen time.Time
}

type MemoryOption func(*MemoryStore)

// WithIdleTTL sets how long an unused key keeps its bucket.
func WithIdleTTL(d time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if d > 0 {
			s.idleTTL = d
		}
	}
}

// WithSweepEvery sets the sweep period; zero or less disables the background sweep.
func WithSweepEvery(d time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.sweepEvery = d }
}

// NewMemoryStore allows limitPerMinute events per key after an initial burst.
func NewMemoryStore(limitPerMinute, burst int, opts ...MemoryOption) *MemoryStore {
	if limitPerMinute <= 0 {
		limitPerMinute = 60
	}
	if burst <= 0 {
		burst = limitPerMinute
	}
	s := &MemoryStore{
		limit:      rate.Limit(float64(limitPerMinute) / 60),
		burst:      burst,
		idleTTL:    defaultIdleTTL,
		sweepEvery: defaultSweepEvery,
		now:        time.Now,
		buckets:    map[string]*bucket{},
		stop:       make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	if s.sweepEvery > 0 {
		go s.sweepLoop()
	}
	return s
}

func (s *MemoryStore) Allow(_ context.Context, key string) (bool, error) {
	now := s.now()
	s.mu.Lock()
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{Limiter: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[key] = b
	}
	b.seen = now
	s.mu.Unlock()
	return b.AllowN(now, 1), nil
}

// Len reports how many keys currently hold a bucket.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// sweep drops buckets not seen since now-idleTTL and returns how many it dropped.
func (s *MemoryStore) sweep(now time.Time) int {
	cutoff := now.Add(-s.idleTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, b := range s.buckets {
		if b.seen.Before(cutoff) {
			delete(s.buckets, k)
			n++
		}
	}
	return n
}

func (s *MemoryStore) sweepLoop() {
	t := time.NewTicker(s.sweepEvery)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			s.sweep(s.now())
		case <-s.stop:
			return
		}
	}
}

// Stop ends the background sweep. Safe to call more than once.
func (s *MemoryStore) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}
