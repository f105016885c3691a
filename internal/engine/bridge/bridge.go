// Package bridge is a browser map engine. It serves a Leaflet page, streams
// map commands to it over server-sent events and receives map events as
// JSON posts. It implements web.Engine.
package bridge

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/safemap/internal/core/health"
	"github.com/mohammed-shakir/safemap/internal/core/middleware"
	"github.com/mohammed-shakir/safemap/internal/mapview/web"
)

//go:embed static
var staticFS embed.FS

const (
	clientBuffer = 64
	maxEventBody = 64 << 10
)

type Options struct {
	Addr   string
	Logger *slog.Logger
}

// command is one instruction for the page.
type command struct {
	Op      string           `json:"op"`
	Bounds  *web.Bounds      `json:"bounds,omitempty"`
	Seconds float64          `json:"seconds,omitempty"`
	Marker  *web.MarkerLayer `json:"marker,omitempty"`
	ID      string           `json:"id,omitempty"`
	User    *web.LatLng      `json:"user,omitempty"`
}

// postedEvent is a map event as the page sends it. Seq increases per page
// load; an event with Seq 0 is delivered unordered.
type postedEvent struct {
	web.Event
	Page string `json:"page,omitempty"`
	Seq  uint64 `json:"seq,omitempty"`
}

type Server struct {
	opts   Options
	log    *slog.Logger
	router chi.Router

	// serializes ordering checks with delivery
	deliver sync.Mutex
	page    string
	lastSeq uint64

	mu      sync.Mutex
	open    bool
	closed  bool
	loaded  bool
	on      func(web.Event)
	view    web.Bounds
	markers map[string]web.MarkerLayer
	user    *web.LatLng
	clients map[chan command]struct{}
	srv     *http.Server
}

var (
	_ web.Engine               = (*Server)(nil)
	_ health.ReadinessReporter = (*Server)(nil)
)

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		opts:    opts,
		log:     opts.Logger.With("component", "bridge"),
		markers: map[string]web.MarkerLayer{},
		clients: map[chan command]struct{}{},
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recover(s.log))
	r.Use(middleware.Logging(s.log, "bridge"))
	r.Use(middleware.CORS())

	page, _ := fs.Sub(staticFS, "static")
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, page, "index.html")
	})
	r.Get("/commands", s.handleCommands)
	r.Post("/events", s.handleEvent)
	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(s))
	return r
}

// Handler exposes the bridge routes without starting a listener.
func (s *Server) Handler() http.Handler { return s.router }

// Open starts serving. The listener is bound before Open returns so an
// unusable address is reported as an init failure.
func (s *Server) Open(ctx context.Context, initial web.Bounds, on func(web.Event)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("bridge: closed")
	}
	if s.open {
		return errors.New("bridge: already open")
	}
	s.on = on
	s.view = initial
	s.open = true

	if s.opts.Addr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		s.open = false
		return fmt.Errorf("bridge: listen %s: %w", s.opts.Addr, err)
	}
	s.srv = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	srv := s.srv
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.emit(web.Event{Type: web.EventError, Message: err.Error()})
		}
	}()
	s.log.Info("map bridge listening", "addr", ln.Addr().String())
	return nil
}

func (s *Server) FlyToBounds(b web.Bounds, seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = b
	s.broadcast(command{Op: "fly", Bounds: &b, Seconds: seconds})
}

func (s *Server) UpsertMarker(m web.MarkerLayer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[m.ID] = m
	s.broadcast(command{Op: "upsert", Marker: &m})
}

func (s *Server) RemoveLayer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, id)
	s.broadcast(command{Op: "remove", ID: id})
}

func (s *Server) SetUserDot(pos *web.LatLng) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pos != nil {
		p := *pos
		pos = &p
	}
	s.user = pos
	s.broadcast(command{Op: "user", User: pos})
}

// Close stops event delivery, disconnects pages and shuts the listener down.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.on = nil
	s.broadcast(command{Op: "close"})
	for ch := range s.clients {
		close(ch)
		delete(s.clients, ch)
	}
	srv := s.srv
	s.mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.log.Warn("bridge shutdown", "err", err)
		}
	}
}

func (s *Server) Readiness() (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded && len(s.clients) > 0, len(s.clients)
}

// broadcast must be called with s.mu held. Slow pages are dropped and
// resynchronized from the snapshot when they reconnect.
func (s *Server) broadcast(c command) {
	for ch := range s.clients {
		select {
		case ch <- c:
		default:
			s.log.Warn("bridge client too slow, disconnecting")
			close(ch)
			delete(s.clients, ch)
		}
	}
}

// snapshot is the command sequence that brings a new page up to date.
func (s *Server) snapshot() []command {
	view := s.view
	out := []command{{Op: "init", Bounds: &view}}
	ids := make([]string, 0, len(s.markers))
	for id := range s.markers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return s.markers[ids[i]].ZIndexOffset < s.markers[ids[j]].ZIndexOffset })
	for _, id := range ids {
		m := s.markers[id]
		out = append(out, command{Op: "upsert", Marker: &m})
	}
	if s.user != nil {
		u := *s.user
		out = append(out, command{Op: "user", User: &u})
	}
	return out
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	if s.closed || !s.open {
		s.mu.Unlock()
		http.Error(w, "map not open", http.StatusServiceUnavailable)
		return
	}
	ch := make(chan command, clientBuffer)
	backlog := s.snapshot()
	s.clients[ch] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if _, ok := s.clients[ch]; ok {
			delete(s.clients, ch)
			close(ch)
		}
		s.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for _, c := range backlog {
		if err := writeSSE(w, c); err != nil {
			return
		}
	}
	fl.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case c, ok := <-ch:
			if !ok {
				return
			}
			if err := writeSSE(w, c); err != nil {
				return
			}
			fl.Flush()
			if c.Op == "close" {
				return
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, c command) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", b)
	return err
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var pe postedEvent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBody))
	if err := dec.Decode(&pe); err != nil {
		http.Error(w, "bad event: "+err.Error(), http.StatusBadRequest)
		return
	}
	switch pe.Type {
	case web.EventLoad, web.EventMoveStart, web.EventMove, web.EventMoveEnd,
		web.EventClick, web.EventResize, web.EventError:
	default:
		http.Error(w, "unknown event type", http.StatusBadRequest)
		return
	}
	if !s.emitOrdered(pe) {
		http.Error(w, "map not open", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// emitOrdered delivers pe unless a later event from the same page was
// already delivered. A new page id restarts the sequence.
func (s *Server) emitOrdered(pe postedEvent) bool {
	s.deliver.Lock()
	defer s.deliver.Unlock()
	if pe.Seq > 0 {
		if pe.Page != s.page {
			s.page, s.lastSeq = pe.Page, 0
		}
		if pe.Seq <= s.lastSeq {
			s.log.Debug("stale map event dropped", "type", pe.Type, "seq", pe.Seq, "last", s.lastSeq)
			return s.isOpen()
		}
		s.lastSeq = pe.Seq
	}
	return s.emit(pe.Event)
}

func (s *Server) isOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.on != nil
}

// emit delivers ev to the renderer unless the bridge is closed.
func (s *Server) emit(ev web.Event) bool {
	s.mu.Lock()
	on := s.on
	if on != nil {
		switch ev.Type {
		case web.EventLoad:
			s.loaded = true
		case web.EventMoveEnd:
			if ev.Bounds != (web.Bounds{}) {
				s.view = ev.Bounds
			}
		}
	}
	s.mu.Unlock()
	if on == nil {
		return false
	}
	on(ev)
	return true
}
