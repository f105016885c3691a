// Package term is a terminal map engine built on bubbletea. It implements
// native.Engine: arrow keys pan, +/- zoom, mouse clicks and enter tap.
package term

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mohammed-shakir/safemap/internal/mapview/native"
)

type Options struct {
	Width  int
	Height int
	Input  io.Reader
	Output io.Writer
	// IdleEnd is how long after the last key a pan gesture is considered finished.
	IdleEnd time.Duration
	Frame   time.Duration
	Logger  *slog.Logger
}

type Engine struct {
	opts     Options
	mu       sync.Mutex
	prog     *tea.Program
	released atomic.Bool
	done     chan struct{}
}

var _ native.Engine = (*Engine)(nil)

func New(opts Options) *Engine {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.Height <= 0 {
		opts.Height = 24
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{opts: opts, done: make(chan struct{})}
}

func (e *Engine) Init(ctx context.Context, initial native.Camera, cb native.Callbacks) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released.Load() {
		return errors.New("term: engine released")
	}
	if e.prog != nil {
		return errors.New("term: engine already initialized")
	}

	m := newMapModel(initial, e.opts.Width, e.opts.Height, e.guard(cb))
	if e.opts.IdleEnd > 0 {
		m.idleEnd = e.opts.IdleEnd
	}
	if e.opts.Frame > 0 {
		m.frame = e.opts.Frame
	}

	popts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}
	if e.opts.Input != nil {
		popts = append(popts, tea.WithInput(e.opts.Input))
	}
	if e.opts.Output != nil {
		popts = append(popts, tea.WithOutput(e.opts.Output))
	}
	p := tea.NewProgram(m, popts...)
	e.prog = p

	go func() {
		defer close(e.done)
		_, err := p.Run()
		if err == nil || errors.Is(err, tea.ErrProgramKilled) || e.released.Load() {
			e.opts.Logger.Debug("terminal map exited", "err", err)
			return
		}
		if cb.OnError != nil {
			cb.OnError(fmt.Errorf("term: %w", err))
		}
	}()
	return nil
}

// Done is closed when the terminal program exits, including when the user quits.
func (e *Engine) Done() <-chan struct{} { return e.done }

func (e *Engine) AnimateCamera(to native.Camera, d time.Duration) {
	e.send(cameraMsg{to: to, d: d})
}

func (e *Engine) AddMarker(m native.MarkerSpec) { e.send(upsertMsg{m: m}) }

func (e *Engine) UpdateMarker(m native.MarkerSpec) { e.send(upsertMsg{m: m}) }

func (e *Engine) RemoveMarker(id string) { e.send(removeMsg{id: id}) }

func (e *Engine) SetZOrder(ids []string) {
	cp := make([]string, len(ids))
	copy(cp, ids)
	e.send(zorderMsg{ids: cp})
}

func (e *Engine) SetUserLocation(pos *native.LatLng) {
	if pos != nil {
		p := *pos
		pos = &p
	}
	e.send(userMsg{pos: pos})
}

func (e *Engine) Release() {
	if e.released.Swap(true) {
		return
	}
	e.mu.Lock()
	p := e.prog
	e.mu.Unlock()
	if p != nil {
		p.Kill()
	} else {
		close(e.done)
	}
}

// send blocks until the program takes msg or exits.
func (e *Engine) send(msg tea.Msg) {
	if e.released.Load() {
		return
	}
	e.mu.Lock()
	p := e.prog
	e.mu.Unlock()
	if p == nil {
		return
	}
	p.Send(msg)
}

// guard drops callbacks once the engine is released.
func (e *Engine) guard(cb native.Callbacks) native.Callbacks {
	live := func() bool { return !e.released.Load() }
	out := native.Callbacks{}
	if f := cb.OnMapReady; f != nil {
		out.OnMapReady = func() {
			if live() {
				f()
			}
		}
	}
	if f := cb.OnLayout; f != nil {
		out.OnLayout = func(w, h int) {
			if live() {
				f(w, h)
			}
		}
	}
	if f := cb.OnRegionChange; f != nil {
		out.OnRegionChange = func(ev native.RegionEvent) {
			if live() {
				f(ev)
			}
		}
	}
	if f := cb.OnRegionChangeComplete; f != nil {
		out.OnRegionChangeComplete = func(ev native.RegionEvent) {
			if live() {
				f(ev)
			}
		}
	}
	if f := cb.OnPress; f != nil {
		out.OnPress = func(ev native.TapEvent) {
			if live() {
				f(ev)
			}
		}
	}
	if f := cb.OnMarkerPress; f != nil {
		out.OnMarkerPress = func(id string, at native.LatLng) {
			if live() {
				f(id, at)
			}
		}
	}
	if f := cb.OnError; f != nil {
		out.OnError = func(err error) {
			if live() {
				f(err)
			}
		}
	}
	return out
}
