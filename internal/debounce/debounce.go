// Package debounce coalesces bursts of triggers into one call.
package debounce

import (
	"sync"
	"time"
)

var afterFunc = time.AfterFunc

// Debouncer runs fn once delay has passed without another Trigger. A timer
// that fires after being replaced or stopped is ignored.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	seq   uint64
	fn    func()
}

func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Ensure returns *d, creating it first when nil.
func Ensure(d **Debouncer, delay time.Duration, fn func()) *Debouncer {
	if *d == nil {
		*d = New(delay, fn)
	}
	return *d
}

func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.timer = afterFunc(d.delay, func() { d.fire(seq) })
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	fn := d.fn
	d.mu.Unlock()
	fn()
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
