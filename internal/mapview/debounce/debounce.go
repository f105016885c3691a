// Package debounce coalesces bursts of region-change events.
package debounce

import (
	"time"

	"github.com/mohammed-shakir/safemap/internal/core/model"
)

// Scheduler runs fn after d and returns a function that cancels it.
type Scheduler func(d time.Duration, fn func()) (stop func() bool)

// TimerScheduler schedules with time.AfterFunc. fn runs on the timer goroutine.
func TimerScheduler(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}

// Region emits at most one region per window while a gesture is in progress
// (the latest one, at the end of the window) and flushes immediately on
// gesture end. It is not safe for concurrent use: callers drive it from their
// event loop and the Scheduler must deliver fn back onto that loop.
type Region struct {
	window     time.Duration
	schedule   Scheduler
	emit       func(model.Region)
	onCoalesce func()

	pending *model.Region
	cancel  func() bool
	gen     uint64
	stopped bool
}

type Option func(*Region)

// WithCoalesceHook calls fn whenever a pending region is superseded before emission.
func WithCoalesceHook(fn func()) Option {
	return func(r *Region) { r.onCoalesce = fn }
}

func New(window time.Duration, schedule Scheduler, emit func(model.Region), opts ...Option) *Region {
	if schedule == nil {
		schedule = TimerScheduler
	}
	r := &Region{window: window, schedule: schedule, emit: emit}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Observe feeds one engine region. final marks the end of a gesture or
// animation.
func (d *Region) Observe(reg model.Region, final bool) {
	if d.stopped {
		return
	}
	if final || d.window <= 0 {
		d.cancelTimer()
		d.pending = nil
		d.emit(reg)
		return
	}

	if d.pending != nil && d.onCoalesce != nil {
		d.onCoalesce()
	}
	d.pending = &reg
	if d.cancel != nil {
		return
	}

	gen := d.gen
	d.cancel = d.schedule(d.window, func() { d.fire(gen) })
}

// Stop cancels the timer and drops the pending region.
func (d *Region) Stop() {
	d.stopped = true
	d.cancelTimer()
	d.pending = nil
}

// Pending reports whether a region is waiting for the window to close.
func (d *Region) Pending() bool { return d.pending != nil }

func (d *Region) fire(gen uint64) {
	if d.stopped || gen != d.gen {
		return
	}
	d.cancel = nil
	d.gen++
	if d.pending == nil {
		return
	}
	reg := *d.pending
	d.pending = nil
	d.emit(reg)
}

func (d *Region) cancelTimer() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.gen++
}
