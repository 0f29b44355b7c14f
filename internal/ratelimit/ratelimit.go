// Package ratelimit throttles chat and survey traffic per client.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether a request from key may proceed. When it may not,
// retryAfterSec is the suggested Retry-After in seconds (0 = omit).
type Limiter interface {
	Allow(key string) (allowed bool, retryAfterSec int)
}

// Noop allows everything.
type Noop struct{}

func (Noop) Allow(string) (bool, int) { return true, 0 }

// Window is a sliding-window limiter held in process memory, so limits are
// per instance.
type Window struct {
	mu      sync.Mutex
	hits    map[string][]time.Time
	limit   int
	window  time.Duration
	nowFunc func() time.Time
}

// NewWindow allows up to limit requests per key within window.
func NewWindow(limit int, window time.Duration) *Window {
	return &Window{
		hits:    make(map[string][]time.Time),
		limit:   limit,
		window:  window,
		nowFunc: time.Now,
	}
}

// PerMinute is NewWindow(limit, time.Minute), or Noop when limit <= 0.
func PerMinute(limit int) Limiter {
	if limit <= 0 {
		return Noop{}
	}
	return NewWindow(limit, time.Minute)
}

func (w *Window) Allow(key string) (bool, int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.nowFunc()
	recent := w.trim(w.hits[key], now)
	if len(recent) >= w.limit {
		w.hits[key] = recent
		wait := recent[0].Add(w.window).Sub(now)
		secs := int(wait / time.Second)
		if wait%time.Second != 0 {
			secs++
		}
		if secs < 1 {
			secs = 1
		}
		return false, secs
	}
	w.hits[key] = append(recent, now)
	return true, 0
}

// trim drops hits that left the window, reusing the slice.
func (w *Window) trim(hits []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-w.window)
	n := 0
	for _, t := range hits {
		if t.After(cutoff) {
			hits[n] = t
			n++
		}
	}
	return hits[:n]
}

// Prune forgets keys without hits in the current window and returns how many
// were removed.
func (w *Window) Prune() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.nowFunc()
	removed := 0
	for key, hits := range w.hits {
		if recent := w.trim(hits, now); len(recent) == 0 {
			delete(w.hits, key)
			removed++
		} else {
			w.hits[key] = recent
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.hits)
}

// Run prunes idle keys every interval until ctx is done.
func (w *Window) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.Prune()
		}
	}
}
