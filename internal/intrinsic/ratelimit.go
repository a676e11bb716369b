package intrinsic

import (
	"sync"
	"time"
)

// CallsPerSecond is the shared ceiling across the fs/net/ssh/ftp groups
// (spec §4.9). term and time calls are exempt — callers simply never
// run them through Limiter.Allow.
const CallsPerSecond = 100000

// Limiter is a fixed-window call-rate limiter. No pack repo wires
// golang.org/x/time/rate or a token-bucket library for this; the
// contract is a flat per-second ceiling with no burst allowance, which
// a one-window counter expresses exactly, so this stays on the
// standard library (time.Now + a mutex-guarded counter) rather than
// pulling in a dependency for one comparison. See DESIGN.md.
type Limiter struct {
	mu          sync.Mutex
	windowStart time.Time
	count       int
	limit       int
}

// NewLimiter builds a limiter capped at limit calls per fixed one-second
// window.
func NewLimiter(limit int) *Limiter {
	return &Limiter{limit: limit}
}

// Allow reports whether one more call fits in the current window,
// counting it if so.
func (l *Limiter) Allow(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.windowStart) >= time.Second {
		l.windowStart = now
		l.count = 0
	}
	if l.count >= l.limit {
		return false
	}
	l.count++
	return true
}
