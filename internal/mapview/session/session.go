// Package session holds the renderer behaviour both platforms must share:
// lifecycle, the pre-ready command queue, region debouncing, marker
// reconciliation and the permission/location flow. Platform renderers plug
// their engine in through Backend and translate engine events into the
// loop-side handlers (Ready, Region, Press, ...).
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mohammed-shakir/safemap/internal/core/model"
	"github.com/mohammed-shakir/safemap/internal/core/observability"
	"github.com/mohammed-shakir/safemap/internal/location"
	mylog "github.com/mohammed-shakir/safemap/internal/logger"
	"github.com/mohammed-shakir/safemap/internal/mapview"
	"github.com/mohammed-shakir/safemap/internal/mapview/cmdqueue"
	"github.com/mohammed-shakir/safemap/internal/mapview/debounce"
	"github.com/mohammed-shakir/safemap/internal/mapview/eventloop"
	"github.com/mohammed-shakir/safemap/internal/mapview/reconcile"
)

// Backend is the engine-facing half of a renderer. Every method is called on
// the session's event loop.
type Backend interface {
	// Init starts the engine. Readiness is reported later through Session.Ready.
	Init(ctx context.Context, initial model.Region) error
	AnimateCamera(r model.Region, d time.Duration)
	ApplyMarkers(p reconcile.Plan)
	// SetUserLocation shows the user dot at loc, or hides it when loc is nil.
	SetUserLocation(loc *model.Location)
	Release()
}

type Options struct {
	Platform string
	Logger   *slog.Logger
	Location location.Service

	// Loop defaults to a dedicated eventloop.Serial owned by the session.
	Loop      eventloop.Loop
	Scheduler debounce.Scheduler

	DebounceWindow time.Duration
	QueueCap       int
	FitDuration    time.Duration
	FitMinDelta    float64
}

func (o *Options) defaults() {
	if o.Platform == "" {
		o.Platform = "native"
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.QueueCap <= 0 {
		o.QueueCap = 16
	}
	if o.FitDuration <= 0 {
		o.FitDuration = 300 * time.Millisecond
	}
	if o.FitMinDelta <= 0 {
		o.FitMinDelta = 0.005
	}
}

const cameraKey = "camera"

type command struct {
	op       string
	region   model.Region
	duration time.Duration
	ids      []string
	padding  float64
}

type Session struct {
	backend Backend
	opts    Options
	log     *slog.Logger
	id      string

	loop    eventloop.Loop
	ownLoop bool
	handle  *mapview.Handle
	current atomic.Pointer[model.Region]

	mountOnce   sync.Once
	mounted     atomic.Bool
	unmountOnce sync.Once
	unmounted   atomic.Bool
	cancel      context.CancelFunc

	// owned by the loop
	props      model.Props
	markers    map[string]model.Marker
	ready      bool
	failed     bool
	viewport   model.Viewport
	permission model.PermissionState
	userLoc    *model.Location
	sub        location.Subscription
	recon      *reconcile.Reconciler
	queue      *cmdqueue.Queue[command]
	deb        *debounce.Region
}

var _ mapview.Component = (*Session)(nil)

func New(b Backend, opts Options) *Session {
	opts.defaults()
	id := mylog.NewID()
	s := &Session{
		backend:    b,
		opts:       opts,
		id:         id,
		log:        opts.Logger.With("platform", opts.Platform, "renderer_id", id),
		markers:    map[string]model.Marker{},
		permission: model.PermissionPending,
		recon:      reconcile.New(),
		queue:      cmdqueue.New[command](opts.QueueCap),
	}
	s.handle = mapview.NewHandle(opts.Platform, ref{s}, s.log)
	return s
}

func (s *Session) Platform() string { return s.opts.Platform }

func (s *Session) ID() string { return s.id }

func (s *Session) Ref() mapview.Ref { return s.handle }

func (s *Session) Logger() *slog.Logger { return s.log }

// Mount starts the session. Engine and permission failures are reported
// through props callbacks; only invalid props or a repeated mount return an error.
func (s *Session) Mount(ctx context.Context, props model.Props) error {
	if err := props.InitialRegion.Validate(); err != nil {
		return fmt.Errorf("mount: %w: %w", mapview.ErrInvalidRegion, err)
	}
	first := false
	s.mountOnce.Do(func() { first = true })
	if !first || s.unmounted.Load() {
		return errors.New("mount: component already mounted")
	}

	initial := props.InitialRegion.Rounded()
	s.current.Store(&initial)

	ctx = mylog.WithPlatform(mylog.WithRendererID(ctx, s.id), s.opts.Platform)
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.loop = s.opts.Loop
	if s.loop == nil {
		s.loop = eventloop.NewSerial(s.log)
		s.ownLoop = true
	}

	sched := s.opts.Scheduler
	if sched == nil {
		sched = debounce.TimerScheduler
	}
	s.deb = debounce.New(s.opts.DebounceWindow,
		func(d time.Duration, fn func()) func() bool {
			return sched(d, func() { s.Dispatch(fn) })
		},
		s.emitRegion,
		debounce.WithCoalesceHook(func() { observability.ObserveRegionEvent(s.opts.Platform, false) }),
	)

	snapshot := props.Clone()
	s.mounted.Store(true)
	observability.RendererMounted(s.opts.Platform, 1)

	s.Dispatch(func() {
		s.setProps(snapshot)
		if err := s.backend.Init(ctx, initial); err != nil {
			s.fail(mapview.InitError(s.opts.Platform, err))
			return
		}
		s.log.Debug("map engine init requested", "region", initial.String())
	})
	go s.requestPermission(ctx)
	return nil
}

// Update replaces the props. InitialRegion is only read at mount.
func (s *Session) Update(props model.Props) {
	snapshot := props.Clone()
	s.Dispatch(func() {
		prevShow := s.props.ShowsUserLocation
		s.setProps(snapshot)
		if !s.ready {
			return
		}
		s.reconcile()
		if prevShow != snapshot.ShowsUserLocation {
			s.syncUserDot()
		}
	})
}

// Unmount releases the engine and location subscriptions and invalidates the ref.
// It does not wait for the release to run on the loop.
func (s *Session) Unmount() {
	s.unmountOnce.Do(func() {
		s.unmounted.Store(true)
		s.handle.Invalidate()
		if !s.mounted.Load() {
			return
		}
		if s.cancel != nil {
			s.cancel()
		}
		if !s.loop.Post(s.teardown) {
			s.teardown()
		}
	})
}

func (s *Session) teardown() {
	s.deb.Stop()
	s.queue.Reset()
	if s.sub != nil {
		s.sub.Stop()
		s.sub = nil
	}
	s.backend.Release()
	s.ready = false
	s.props = model.Props{}
	observability.RendererMounted(s.opts.Platform, -1)
	s.log.Info("map renderer unmounted")
	if s.ownLoop {
		s.loop.Stop()
	}
}

// Dispatch runs fn on the session loop unless the session has been unmounted.
// Backends use it to move engine callbacks onto the loop.
func (s *Session) Dispatch(fn func()) bool {
	if s.unmounted.Load() || s.loop == nil {
		return false
	}
	return s.loop.Post(func() {
		if s.unmounted.Load() {
			return
		}
		fn()
	})
}

// --- loop-side handlers called by backends ---

// Ready marks the engine ready, renders markers and replays queued commands.
func (s *Session) Ready() {
	if s.ready || s.failed {
		return
	}
	s.ready = true
	s.log.Info("map engine ready")
	s.reconcile()
	s.syncUserDot()
	for _, cmd := range s.queue.Drain() {
		s.exec(cmd)
	}
}

func (s *Session) IsReady() bool { return s.ready }

func (s *Session) Layout(vp model.Viewport) {
	if vp.WidthPx > 0 && vp.HeightPx > 0 {
		s.viewport = vp
	}
}

func (s *Session) Viewport() model.Viewport { return s.viewport }

// Region records an engine-reported camera region. final marks gesture or
// animation end and bypasses the debounce window.
func (s *Session) Region(reg model.Region, final bool) {
	reg = reg.Rounded()
	if err := reg.Validate(); err != nil {
		s.log.Warn("engine reported invalid region", "err", err)
		return
	}
	s.current.Store(&reg)
	s.deb.Observe(reg, final)
}

func (s *Session) Press(loc model.Location) {
	loc = loc.Rounded()
	if loc.Validate() != nil {
		return
	}
	if fn := s.props.OnPress; fn != nil {
		fn(model.PressEvent{Coordinate: loc})
	}
}

func (s *Session) MarkerPress(id string, loc model.Location) {
	if _, ok := s.markers[id]; !ok {
		return
	}
	if fn := s.props.OnMarkerPress; fn != nil {
		fn(model.MarkerPressEvent{MarkerID: id, Coordinate: loc.Rounded()})
	}
}

// Fail reports an engine error. Before readiness it is an init failure and
// the session falls back to an empty, inert map.
func (s *Session) Fail(err error) {
	if err == nil {
		return
	}
	if !s.ready {
		s.fail(mapview.InitError(s.opts.Platform, err))
		return
	}
	s.report(&mapview.EngineError{Platform: s.opts.Platform, Op: "runtime", Err: err})
}

// Markers returns the current marker snapshot in draw order.
func (s *Session) Markers() []model.Marker { return s.props.Markers }

// CurrentRegion is the last known region, safe to call from any goroutine.
func (s *Session) CurrentRegion() model.Region {
	if r := s.current.Load(); r != nil {
		return *r
	}
	return model.Region{}
}

// --- internals ---

func (s *Session) setProps(p model.Props) {
	s.props = p
	s.markers = make(map[string]model.Marker, len(p.Markers))
	for _, m := range p.Markers {
		if _, dup := s.markers[m.ID]; !dup {
			s.markers[m.ID] = m
		}
	}
}

func (s *Session) reconcile() {
	plan := s.recon.Apply(s.props.Markers)
	if len(plan.Duplicates) > 0 {
		s.log.Warn("duplicate marker ids ignored", "ids", plan.Duplicates)
	}
	if plan.Empty() {
		return
	}
	s.backend.ApplyMarkers(plan)
	observability.AddMarkerOps(s.opts.Platform, "add", len(plan.Add))
	observability.AddMarkerOps(s.opts.Platform, "update", len(plan.Update))
	observability.AddMarkerOps(s.opts.Platform, "remove", len(plan.Remove))
	if plan.Reorder {
		observability.AddMarkerOps(s.opts.Platform, "reorder", 1)
	}
}

func (s *Session) emitRegion(reg model.Region) {
	observability.ObserveRegionEvent(s.opts.Platform, true)
	if fn := s.props.OnRegionChange; fn != nil {
		fn(reg)
	}
}

func (s *Session) submit(cmd command) {
	if s.failed {
		observability.ObserveRefCommand(s.opts.Platform, cmd.op, "noop")
		s.log.Debug("ref call ignored, engine failed", "op", cmd.op)
		return
	}
	if !s.ready {
		dropped := s.queue.Overflow()
		if s.queue.Push(cameraKey, cmd) {
			observability.IncQueueCollapsed(s.opts.Platform)
		}
		if s.queue.Overflow() > dropped {
			s.log.Warn("pre-ready queue full, oldest command dropped", "cap", s.opts.QueueCap)
		}
		observability.ObserveRefCommand(s.opts.Platform, cmd.op, "queued")
		return
	}
	s.exec(cmd)
}

func (s *Session) exec(cmd command) {
	switch cmd.op {
	case "animate_to_region":
		s.backend.AnimateCamera(cmd.region, cmd.duration)
	case "fit_to_markers":
		reg, ok := s.fitRegion(cmd.ids, cmd.padding)
		if !ok {
			observability.ObserveRefCommand(s.opts.Platform, cmd.op, "noop")
			return
		}
		s.backend.AnimateCamera(reg, s.opts.FitDuration)
	}
	observability.ObserveRefCommand(s.opts.Platform, cmd.op, "applied")
}

func (s *Session) fitRegion(ids []string, padding float64) (model.Region, bool) {
	locs := make([]model.Location, 0, len(ids))
	for _, id := range ids {
		if m, ok := s.markers[id]; ok {
			locs = append(locs, m.Location)
		}
	}
	if len(locs) == 0 {
		s.log.Debug("fit to markers: no known ids", "ids", ids)
		return model.Region{}, false
	}
	reg, err := model.FitRegion(locs, padding, s.viewport, s.opts.FitMinDelta)
	if err != nil {
		s.log.Warn("fit to markers rejected", "err", err)
		observability.IncError(s.opts.Platform, mapview.Kind(mapview.ErrInvalidRegion))
		return model.Region{}, false
	}
	return reg, true
}

func (s *Session) fail(err error) {
	s.failed = true
	s.queue.Reset()
	s.report(err)
}

func (s *Session) report(err error) {
	kind := mapview.Kind(err)
	observability.IncError(s.opts.Platform, kind)
	s.log.Error("map engine error", "kind", kind, "err", err)
	if fn := s.props.OnError; fn != nil {
		fn(err)
	}
}

func (s *Session) requestPermission(ctx context.Context) {
	if s.opts.Location == nil {
		s.Dispatch(func() { s.setPermission(ctx, model.PermissionDenied, nil) })
		return
	}
	st, err := s.opts.Location.RequestForegroundPermission(ctx)
	if ctx.Err() != nil {
		return
	}
	s.Dispatch(func() { s.setPermission(ctx, st, err) })
}

func (s *Session) setPermission(ctx context.Context, st model.PermissionState, err error) {
	if err != nil {
		s.log.WarnContext(ctx, "location permission request failed", "err", err)
		st = model.PermissionDenied
	}
	s.permission = st
	if fn := s.props.OnPermission; fn != nil {
		fn(st)
	}
	if st != model.PermissionGranted {
		observability.IncError(s.opts.Platform, mapview.Kind(mapview.ErrPermissionDenied))
		s.log.Info("location permission not granted, continuing without user location", "state", string(st))
		return
	}

	sub, err := s.opts.Location.WatchPosition(ctx, func(loc model.Location) {
		s.Dispatch(func() { s.userLocation(loc) })
	})
	if err != nil {
		s.log.WarnContext(ctx, "watch position failed", "err", err)
		return
	}
	if s.unmounted.Load() {
		sub.Stop()
		return
	}
	s.sub = sub
}

// Permission is the last permission state seen by the session.
func (s *Session) Permission() model.PermissionState { return s.permission }

func (s *Session) userLocation(loc model.Location) {
	if loc.Validate() != nil {
		return
	}
	loc = loc.Rounded()
	s.userLoc = &loc
	s.syncUserDot()
	if fn := s.props.OnUserLocation; fn != nil {
		fn(loc)
	}
}

func (s *Session) syncUserDot() {
	if !s.ready {
		return
	}
	if s.props.ShowsUserLocation && s.userLoc != nil && s.permission == model.PermissionGranted {
		loc := *s.userLoc
		s.backend.SetUserLocation(&loc)
		return
	}
	s.backend.SetUserLocation(nil)
}

// ref is the target behind the mapview.Handle; its methods run on the caller goroutine.
type ref struct{ s *Session }

func (r ref) AnimateToRegion(reg model.Region, duration time.Duration) {
	s := r.s
	if err := reg.Validate(); err != nil {
		observability.ObserveRefCommand(s.opts.Platform, "animate_to_region", "rejected")
		observability.IncError(s.opts.Platform, mapview.Kind(mapview.ErrInvalidRegion))
		s.log.Warn("animate to region rejected", "err", fmt.Errorf("%w: %w", mapview.ErrInvalidRegion, err))
		return
	}
	if duration < 0 {
		duration = 0
	}
	cmd := command{op: "animate_to_region", region: reg.Rounded(), duration: duration}
	s.Dispatch(func() { s.submit(cmd) })
}

func (r ref) FitToMarkers(ids []string, paddingPx float64) {
	s := r.s
	if len(ids) == 0 {
		observability.ObserveRefCommand(s.opts.Platform, "fit_to_markers", "noop")
		return
	}
	cp := make([]string, len(ids))
	copy(cp, ids)
	cmd := command{op: "fit_to_markers", ids: cp, padding: paddingPx}
	s.Dispatch(func() { s.submit(cmd) })
}

func (r ref) GetCurrentRegion() model.Region { return r.s.CurrentRegion() }
