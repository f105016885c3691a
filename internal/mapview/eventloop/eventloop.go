// Package eventloop serializes renderer work onto a single logical UI thread.
package eventloop

import (
	"context"
	"log/slog"
	"sync"
)

// Loop runs posted functions one at a time, in post order.
type Loop interface {
	// Post schedules fn and never blocks. It returns false once the loop is stopped.
	Post(fn func()) bool
	Stop()
}

type Serial struct {
	log *slog.Logger

	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake   chan struct{}
	done   chan struct{}
	exited chan struct{}
}

var _ Loop = (*Serial)(nil)

func NewSerial(log *slog.Logger) *Serial {
	if log == nil {
		log = slog.Default()
	}
	l := &Serial{
		log:    log,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Serial) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Stop drops pending work; the task currently running, if any, completes.
func (l *Serial) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.queue = nil
	l.mu.Unlock()
	close(l.done)
}

// Exited is closed when the loop goroutine has returned.
func (l *Serial) Exited() <-chan struct{} { return l.exited }

// Flush blocks until every task posted before the call has run.
func (l *Serial) Flush(ctx context.Context) error {
	ran := make(chan struct{})
	if !l.Post(func() { close(ran) }) {
		return context.Canceled
	}
	select {
	case <-ran:
		return nil
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Serial) run() {
	defer close(l.exited)
	for {
		select {
		case <-l.done:
			return
		case <-l.wake:
		}
		for {
			l.mu.Lock()
			if l.stopped || len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			batch := l.queue
			l.queue = nil
			l.mu.Unlock()

			for _, fn := range batch {
				if l.isStopped() {
					return
				}
				l.safeRun(fn)
			}
		}
	}
}

func (l *Serial) isStopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}

func (l *Serial) safeRun(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			l.log.Error("event loop task panicked", "err", rec)
		}
	}()
	fn()
}

// Manual is a Loop driven explicitly by tests through RunPending.
type Manual struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool
}

var _ Loop = (*Manual)(nil)

func NewManual() *Manual { return &Manual{} }

func (m *Manual) Post(fn func()) bool {
	if fn == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return false
	}
	m.queue = append(m.queue, fn)
	return true
}

func (m *Manual) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.queue = nil
	m.mu.Unlock()
}

// RunPending runs queued tasks, including ones they post, until the queue is
// empty. It returns the number of tasks run.
func (m *Manual) RunPending() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return n
		}
		fn := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		fn()
		n++
	}
}

func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
