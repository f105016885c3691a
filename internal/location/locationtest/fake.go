// Package locationtest provides a deterministic location service for tests.
package locationtest

import (
	"context"
	"sync"

	"github.com/mohammed-shakir/safemap/internal/core/model"
	"github.com/mohammed-shakir/safemap/internal/location"
)

// Fake keeps permission requests pending until Grant or Deny is called and
// delivers positions only through Emit.
type Fake struct {
	mu       sync.Mutex
	decided  chan struct{}
	state    model.PermissionState
	err      error
	requests int
	subs     map[int]func(model.Location)
	nextID   int
}

var _ location.Service = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		decided: make(chan struct{}),
		state:   model.PermissionPending,
		subs:    map[int]func(model.Location){},
	}
}

func (f *Fake) RequestForegroundPermission(ctx context.Context) (model.PermissionState, error) {
	f.mu.Lock()
	f.requests++
	decided := f.decided
	f.mu.Unlock()

	select {
	case <-ctx.Done():
		return model.PermissionPending, ctx.Err()
	case <-decided:
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.err
}

func (f *Fake) WatchPosition(ctx context.Context, fn func(model.Location)) (location.Subscription, error) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.mu.Unlock()

	stop := func() {
		f.mu.Lock()
		delete(f.subs, id)
		f.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return location.StopFunc(stop), nil
}

func (f *Fake) Grant() { f.decide(model.PermissionGranted, nil) }

func (f *Fake) Deny() { f.decide(model.PermissionDenied, nil) }

// Fail makes pending and future permission requests return err.
func (f *Fake) Fail(err error) { f.decide(model.PermissionDenied, err) }

func (f *Fake) decide(state model.PermissionState, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state, f.err = state, err
	select {
	case <-f.decided:
	default:
		close(f.decided)
	}
}

// Emit delivers loc synchronously to every active watcher.
func (f *Fake) Emit(loc model.Location) {
	f.mu.Lock()
	fns := make([]func(model.Location), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(loc)
	}
}

// Watchers is the number of active subscriptions.
func (f *Fake) Watchers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *Fake) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}
