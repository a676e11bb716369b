package minilog

import (
	"container/ring"
	"sync"
)

// Ring is a fixed-capacity ring buffer over any element type, generalized
// from sandia-minimega-minimega's pkg/minilog.Ring (originally a
// container/ring-backed ring of formatted debug log strings with a
// baked-in timestamp prefix). The timestamping and string formatting
// were teacher-console concerns; this version keeps only the
// fixed-capacity ring-of-values technique so both the plain debug
// console sink and the world's per-server log record buffer (whose
// records already carry their own worldTimeMs) can share it.
type Ring[T any] struct {
	size int

	mu sync.Mutex
	r  *ring.Ring
}

// NewRing allocates a ring buffer holding up to size elements.
func NewRing[T any](size int) *Ring[T] {
	return &Ring[T]{
		r:    ring.New(size),
		size: size,
	}
}

// Push appends a value, overwriting the oldest entry once the ring is full.
func (l *Ring[T]) Push(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.r = l.r.Next()
	l.r.Value = v
}

// Values returns the buffered elements from oldest to newest.
func (l *Ring[T]) Values() []T {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := make([]T, 0, l.size)

	l.r.Next().Do(func(v interface{}) {
		if v == nil {
			return
		}
		res = append(res, v.(T))
	})

	return res
}

// Len returns the ring's fixed capacity.
func (l *Ring[T]) Len() int {
	return l.size
}
