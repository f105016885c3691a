package debounce

import (
	"testing"
	"time"

	"github.com/mohammed-shakir/safemap/internal/core/model"
)

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

type fakeScheduler struct {
	timers []*fakeTimer
}

func (f *fakeScheduler) schedule(d time.Duration, fn func()) func() bool {
	t := &fakeTimer{d: d, fn: fn}
	f.timers = append(f.timers, t)
	return func() bool {
		was := !t.stopped
		t.stopped = true
		return was
	}
}

// fire runs the latest timer even if it was stopped, like a timer that
// raced its cancellation
func (f *fakeScheduler) fireLast() {
	f.timers[len(f.timers)-1].fn()
}

func reg(lat float64) model.Region {
	return model.Region{Latitude: lat, Longitude: 90.4, LatitudeDelta: 0.05, LongitudeDelta: 0.05}
}

func TestRegion_CoalescesWithinWindow(t *testing.T) {
	fs := &fakeScheduler{}
	var got []model.Region
	coalesced := 0
	d := New(150*time.Millisecond, fs.schedule, func(r model.Region) { got = append(got, r) },
		WithCoalesceHook(func() { coalesced++ }))

	d.Observe(reg(1), false)
	d.Observe(reg(2), false)
	d.Observe(reg(3), false)

	if len(fs.timers) != 1 {
		t.Fatalf("timers=%d want 1", len(fs.timers))
	}
	if fs.timers[0].d != 150*time.Millisecond {
		t.Fatalf("window=%v", fs.timers[0].d)
	}
	if len(got) != 0 {
		t.Fatalf("emitted before window closed: %v", got)
	}

	fs.fireLast()
	if len(got) != 1 || got[0].Latitude != 3 {
		t.Fatalf("got=%v want single emission of latest", got)
	}
	if coalesced != 2 {
		t.Fatalf("coalesced=%d want 2", coalesced)
	}

	// next event opens a new window
	d.Observe(reg(4), false)
	if len(fs.timers) != 2 {
		t.Fatalf("timers=%d want 2", len(fs.timers))
	}
}

func TestRegion_GestureEndFlushesImmediately(t *testing.T) {
	fs := &fakeScheduler{}
	var got []model.Region
	d := New(time.Second, fs.schedule, func(r model.Region) { got = append(got, r) })

	d.Observe(reg(1), false)
	d.Observe(reg(2), true)

	if len(got) != 1 || got[0].Latitude != 2 {
		t.Fatalf("got=%v want immediate final emission", got)
	}
	if !fs.timers[0].stopped {
		t.Fatalf("pending timer not cancelled on gesture end")
	}
	if d.Pending() {
		t.Fatalf("pending region survived gesture end")
	}

	// a timer that raced the cancel must not emit the stale region
	fs.fireLast()
	if len(got) != 1 {
		t.Fatalf("stale timer emitted: %v", got)
	}
}

func TestRegion_ZeroWindowEmitsEverything(t *testing.T) {
	var got []model.Region
	d := New(0, nil, func(r model.Region) { got = append(got, r) })
	d.Observe(reg(1), false)
	d.Observe(reg(2), false)
	if len(got) != 2 {
		t.Fatalf("got=%d want 2", len(got))
	}
}

func TestRegion_StopDropsPending(t *testing.T) {
	fs := &fakeScheduler{}
	var got []model.Region
	d := New(time.Second, fs.schedule, func(r model.Region) { got = append(got, r) })

	d.Observe(reg(1), false)
	d.Stop()
	fs.fireLast()
	d.Observe(reg(2), true)

	if len(got) != 0 {
		t.Fatalf("emitted after stop: %v", got)
	}
}
