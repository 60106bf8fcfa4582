// Package ring provides a fixed-capacity FIFO ring buffer.
package ring

import "sync"

// Ring is a thread-safe circular buffer of T. Once full, every push
// overwrites the oldest element.
type Ring[T any] struct {
	buf  []T
	size int
	w    int // write position
	len  int // current fill level
	mu   sync.Mutex
}

// New creates a ring holding at most size elements. Sizes below 1 are
// raised to 1.
func New[T any](size int) *Ring[T] {
	if size < 1 {
		size = 1
	}
	return &Ring[T]{
		buf:  make([]T, size),
		size: size,
	}
}

// Push appends values in order, evicting the oldest ones on overflow.
func (r *Ring[T]) Push(vs ...T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Only the newest size values can survive.
	if len(vs) > r.size {
		vs = vs[len(vs)-r.size:]
	}
	for _, v := range vs {
		r.buf[r.w] = v
		r.w = (r.w + 1) % r.size
	}
	r.len += len(vs)
	if r.len > r.size {
		r.len = r.size
	}
}

// Last returns up to n of the newest elements, oldest first.
func (r *Ring[T]) Last(n int) []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last(n)
}

// Snapshot returns a copy of every element, oldest first.
func (r *Ring[T]) Snapshot() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last(r.len)
}

func (r *Ring[T]) last(n int) []T {
	if n > r.len {
		n = r.len
	}
	if n <= 0 {
		return nil
	}

	out := make([]T, n)
	start := (r.w - n + r.size) % r.size
	for i := range n {
		out[i] = r.buf[(start+i)%r.size]
	}
	return out
}

// Len returns the number of stored elements.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.len
}

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int {
	return r.size
}

// Clear resets the buffer.
func (r *Ring[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.w = 0
	r.len = 0
}
