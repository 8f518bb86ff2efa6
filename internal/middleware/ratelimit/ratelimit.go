// Package ratelimit caps how many state-changing requests one client may
// make per period.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds rate limiter configuration
type Config struct {
	// Limit is the number of requests allowed per Period
	Limit  int
	Period time.Duration

	// Clients idle longer than IdleAfter are dropped every SweepInterval
	SweepInterval time.Duration
	IdleAfter     time.Duration

	// Now is the clock; tests replace it
	Now func() time.Time
}

// DefaultConfig allows 60 mutations per minute per client.
func DefaultConfig() Config {
	return Config{
		Limit:         60,
		Period:        time.Minute,
		SweepInterval: 5 * time.Minute,
		IdleAfter:     10 * time.Minute,
		Now:           time.Now,
	}
}

// Limiter counts requests per key in fixed windows.
type Limiter struct {
	cfg Config

	mu      sync.Mutex
	windows map[string]*window

	rejected atomic.Int64
	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	start time.Time
	last  time.Time
	count int
}

// New creates a limiter and starts its sweeper; call Stop to release it.
// Zero fields in cfg take their DefaultConfig value.
func New(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.Period <= 0 {
		cfg.Period = def.Period
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = def.IdleAfter
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}

	l := &Limiter{
		cfg:     cfg,
		windows: make(map[string]*window),
		stop:    make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// Allow records one request for key. When the window is exhausted it
// returns false and how long until the window resets.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.cfg.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.cfg.Period {
		l.windows[key] = &window{start: now, last: now, count: 1}
		return true, 0
	}
	w.last = now
	if w.count >= l.cfg.Limit {
		l.rejected.Add(1)
		return false, w.start.Add(l.cfg.Period).Sub(now)
	}
	w.count++
	return true, 0
}

// Clients returns the number of keys currently tracked.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Rejected returns how many requests were refused so far.
func (l *Limiter) Rejected() int64 {
	return l.rejected.Load()
}

// Stop ends the sweeper. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

func (l *Limiter) sweep() int {
	cutoff := l.cfg.Now().Add(-l.cfg.IdleAfter)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, w := range l.windows {
		if w.last.Before(cutoff) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// RejectFunc writes the response for a refused request.
type RejectFunc func(w http.ResponseWriter, r *http.Request, retryAfter time.Duration)

// Middleware limits requests by the key extracted from each request.
// A nil onReject answers with a plain 429.
func (l *Limiter) Middleware(key func(*http.Request) string, onReject RejectFunc) func(http.Handler) http.Handler {
	if onReject == nil {
		onReject = func(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
			SetRetryAfter(w, retryAfter)
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ok, retry := l.Allow(key(r)); !ok {
				onReject(w, r, retry)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetRetryAfter writes d as whole seconds, rounded up, at least 1.
func SetRetryAfter(w http.ResponseWriter, d time.Duration) {
	secs := int64(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
}
