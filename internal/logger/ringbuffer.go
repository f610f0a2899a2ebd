package logger

import "sync"

// RingBuffer is a fixed-capacity FIFO that overwrites its oldest entry when full.
type RingBuffer[T any] struct {
	mu    sync.RWMutex
	items []T
	next  int
	full  bool
}

// NewRingBuffer creates a ring buffer holding at most capacity items.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		capacity = defaultBufferSize
	}
	return &RingBuffer[T]{items: make([]T, capacity)}
}

// Push appends an item, evicting the oldest one at capacity.
func (r *RingBuffer[T]) Push(item T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.next] = item
	r.next = (r.next + 1) % len(r.items)
	if r.next == 0 {
		r.full = true
	}
}

// Last returns up to n of the most recent items, oldest first.
// n <= 0 returns everything buffered.
func (r *RingBuffer[T]) Last(n int) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := r.next
	start := 0
	if r.full {
		count = len(r.items)
		start = r.next
	}
	if n > 0 && n < count {
		start = (start + count - n) % len(r.items)
		count = n
	}

	out := make([]T, count)
	for i := range count {
		out[i] = r.items[(start+i)%len(r.items)]
	}
	return out
}

// Len returns the number of buffered items.
func (r *RingBuffer[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.items)
	}
	return r.next
}
