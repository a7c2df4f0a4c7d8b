package ratelimit

import (
	"sync"
	"time"
)

// Config stores token bucket limiter settings.
type Config struct {
	Rate       float64       // refill rate, tokens per second
	Burst      int           // bucket capacity
	TTL        time.Duration // idle buckets older than this are dropped (0 keeps them forever)
	MaxBuckets int           // hard cap on tracked keys, 0 means unlimited
}

// TokenBucketLimiter keeps an independent token bucket per key.
type TokenBucketLimiter struct {
	cfg   Config
	clock Clock

	mu      sync.RWMutex
	buckets map[string]*bucket
	swept   time.Time
}

type bucket struct {
	mu     sync.Mutex
	level  float64
	filled time.Time
	seen   time.Time
}

// NewTokenBucketLimiter builds a limiter from explicit settings. Non-positive
// rate and burst fall back to 1.
func NewTokenBucketLimiter(clock Clock, cfg Config) *TokenBucketLimiter {
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxBuckets < 0 {
		cfg.MaxBuckets = 0
	}
	return &TokenBucketLimiter{
		cfg:     cfg,
		clock:   clock,
		buckets: make(map[string]*bucket),
	}
}

// NewTokenBucketPerWindow expresses the limit as "n requests per window".
func NewTokenBucketPerWindow(clock Clock, limit int, window, ttl time.Duration) *TokenBucketLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return NewTokenBucketLimiter(clock, Config{
		Rate:  float64(limit) / window.Seconds(),
		Burst: limit,
		TTL:   ttl,
	})
}

// Allow reports whether key may proceed, consuming a token when it may.
func (l *TokenBucketLimiter) Allow(key string) bool {
	now := l.clock.Now()
	l.sweep(now)

	b := l.bucketFor(key, now)
	if b == nil {
		// at MaxBuckets new keys are rejected outright
		return false
	}
	return b.take(now, l.cfg.Rate, float64(l.cfg.Burst))
}

func (l *TokenBucketLimiter) bucketFor(key string, now time.Time) *bucket {
	l.mu.RLock()
	b := l.buckets[key]
	l.mu.RUnlock()
	if b != nil {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if b = l.buckets[key]; b != nil {
		return b
	}
	if l.cfg.MaxBuckets > 0 && len(l.buckets) >= l.cfg.MaxBuckets {
		return nil
	}

	b = &bucket{
		level:  float64(l.cfg.Burst),
		filled: now,
		seen:   now,
	}
	l.buckets[key] = b
	return b
}

func (b *bucket) take(now time.Time, rate, burst float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if dt := now.Sub(b.filled); dt > 0 {
		b.level += dt.Seconds() * rate
		if b.level > burst {
			b.level = burst
		}
		b.filled = now
	}
	b.seen = now

	if b.level < 1 {
		return false
	}
	b.level--
	return true
}

// sweep drops buckets idle for longer than TTL. It runs at most once per
// minute, or once per TTL/2 when that is longer.
func (l *TokenBucketLimiter) sweep(now time.Time) {
	if l.cfg.TTL <= 0 {
		return
	}

	interval := time.Minute
	if half := l.cfg.TTL / 2; half > interval {
		interval = half
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.swept.IsZero() && now.Sub(l.swept) < interval {
		return
	}
	l.swept = now

	for k, b := range l.buckets {
		b.mu.Lock()
		seen := b.seen
		b.mu.Unlock()

		if now.Sub(seen) > l.cfg.TTL {
			delete(l.buckets, k)
		}
	}
}
