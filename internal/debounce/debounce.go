// Package debounce coalesces bursts of updates into the latest value after a
// quiet period.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delivers the last value pushed once no new value has arrived for
// the configured delay. It can be stopped and reused.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	gen     uint64
}

// New creates a debouncer calling fn on its own goroutine.
func New[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Push records v and restarts the quiet period.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = v
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		// superseded by a later push or a stop
		d.mu.Unlock()
		return
	}
	v := d.pending
	d.timer = nil
	d.mu.Unlock()

	d.fn(v)
}

// Flush delivers a pending value immediately. It reports whether one was
// pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.timer == nil {
		d.mu.Unlock()
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	v := d.pending
	d.mu.Unlock()

	d.fn(v)
	return true
}

// Stop drops a pending value.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Distinct is a Debouncer that also drops a settled value equal to the
// previously delivered one.
type Distinct[T comparable] struct {
	*Debouncer[T]
}

// NewDistinct creates a distinct debouncer.
func NewDistinct[T comparable](delay time.Duration, fn func(T)) *Distinct[T] {
	var (
		mu   sync.Mutex
		last T
		seen bool
	)
	return &Distinct[T]{Debouncer: New(delay, func(v T) {
		mu.Lock()
		if seen && v == last {
			mu.Unlock()
			return
		}
		last, seen = v, true
		mu.Unlock()
		fn(v)
	})}
}

// Pair is two values that settle together.
type Pair[A, B comparable] struct {
	First  A
	Second B
}
