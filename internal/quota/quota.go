// Package quota enforces the per-user daily cap on recommendation generation calls.
//
// Unlike the HTTP-level token bucket in internal/server/ratelimit, this is a
// fixed 24-hour window: the Nth accepted call within a window brings the count
// to N, and once the count reaches the limit every further call is denied
// until the window expires. State is an in-process keyed store with one lock
// per user record, so concurrent callers for different users do not contend.
package quota

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Decision is the outcome of a consume or status check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Gate is the interface the pipeline consumes. An error means the limiter
// itself is unavailable; callers must treat that as a denial (fail closed) to
// preserve the cost-control guarantee that motivates the quota.
type Gate interface {
	TryConsume(userID uuid.UUID, now time.Time) (Decision, error)
	Status(userID uuid.UUID, now time.Time) (Decision, error)
}

// record tracks one user's calls in the current window.
// The increment-and-check in TryConsume is atomic under mu.
type record struct {
	mu          sync.Mutex
	windowStart time.Time
	callCount   int
	lastAccess  time.Time
}

// Limiter is an in-memory Gate implementation.
type Limiter struct {
	limit  int
	window time.Duration

	mu      sync.RWMutex
	records map[uuid.UUID]*record

	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithCleanupInterval enables periodic eviction of records whose window has
// long expired. A non-positive interval disables cleanup.
func WithCleanupInterval(interval time.Duration) Option {
	return func(l *Limiter) {
		if interval <= 0 {
			return
		}
		l.cleanupTicker = time.NewTicker(interval)
		l.cleanupStop = make(chan struct{})
		go l.cleanup()
	}
}

// NewLimiter creates a limiter allowing limit calls per window per user.
func NewLimiter(limit int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		limit:   limit,
		window:  window,
		records: make(map[uuid.UUID]*record),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// TryConsume atomically checks and, if allowed, consumes one call for userID.
// The returned ResetAt is when the current window expires.
func (l *Limiter) TryConsume(userID uuid.UUID, now time.Time) (Decision, error) {
	rec := l.getRecord(userID)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.lastAccess = now
	if rec.windowStart.IsZero() || now.Sub(rec.windowStart) >= l.window {
		rec.windowStart = now
		rec.callCount = 0
	}

	resetAt := rec.windowStart.Add(l.window)
	if rec.callCount >= l.limit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}

	rec.callCount++
	return Decision{
		Allowed:   true,
		Remaining: l.limit - rec.callCount,
		ResetAt:   resetAt,
	}, nil
}

// Status reports the user's current quota without consuming a call.
func (l *Limiter) Status(userID uuid.UUID, now time.Time) (Decision, error) {
	rec := l.getRecord(userID)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.windowStart.IsZero() || now.Sub(rec.windowStart) >= l.window {
		return Decision{Allowed: true, Remaining: l.limit, ResetAt: now.Add(l.window)}, nil
	}

	remaining := l.limit - rec.callCount
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   remaining > 0,
		Remaining: remaining,
		ResetAt:   rec.windowStart.Add(l.window),
	}, nil
}

// getRecord gets or creates the record for userID.
func (l *Limiter) getRecord(userID uuid.UUID) *record {
	l.mu.RLock()
	rec, exists := l.records[userID]
	l.mu.RUnlock()
	if exists {
		return rec
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Double-check after acquiring write lock
	if existing, exists := l.records[userID]; exists {
		return existing
	}
	rec = &record{}
	l.records[userID] = rec
	return rec
}

// cleanup evicts records whose window expired more than one window ago.
func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.evictStale(time.Now())
		case <-l.cleanupStop:
			return
		}
	}
}

func (l *Limiter) evictStale(now time.Time) {
	cutoff := now.Add(-2 * l.window)

	l.mu.Lock()
	defer l.mu.Unlock()
	for id, rec := range l.records {
		rec.mu.Lock()
		stale := rec.lastAccess.Before(cutoff)
		rec.mu.Unlock()
		if stale {
			delete(l.records, id)
		}
	}
}

// Stop stops the cleanup goroutine.
func (l *Limiter) Stop() {
	if l.cleanupTicker != nil {
		l.cleanupTicker.Stop()
	}
	if l.cleanupStop != nil {
		close(l.cleanupStop)
	}
}
