package web

import (
	"context"
	"errors"
	"time"

	"github.com/mohammed-shakir/safemap/internal/core/model"
	"github.com/mohammed-shakir/safemap/internal/mapview"
	"github.com/mohammed-shakir/safemap/internal/mapview/reconcile"
	"github.com/mohammed-shakir/safemap/internal/mapview/session"
)

const Platform = "web"

type Options struct {
	session.Options

	// HitTolerancePx is the click radius, in container pixels, that selects a marker.
	HitTolerancePx float64
	IconCacheSize  int
}

// Renderer binds a web Engine to the map component contract.
type Renderer struct {
	s *session.Session
}

var _ mapview.Component = (*Renderer)(nil)

type backend struct {
	s         *session.Session
	engine    Engine
	tolerance float64
	hits      *hitIndex
	icons     *iconCache
	z         map[string]int
	nextZ     int
}

func New(engine Engine, opts Options) *Renderer {
	so := opts.Options
	so.Platform = Platform
	if opts.HitTolerancePx <= 0 {
		opts.HitTolerancePx = 12
	}
	b := &backend{
		engine:    engine,
		tolerance: opts.HitTolerancePx,
		hits:      newHitIndex(),
		icons:     newIconCache(opts.IconCacheSize),
		z:         map[string]int{},
	}
	b.s = session.New(b, so)
	return &Renderer{s: b.s}
}

func (r *Renderer) Mount(ctx context.Context, props model.Props) error {
	return r.s.Mount(ctx, props)
}

func (r *Renderer) Update(props model.Props) { r.s.Update(props) }

func (r *Renderer) Ref() mapview.Ref { return r.s.Ref() }

func (r *Renderer) Unmount() { r.s.Unmount() }

func (r *Renderer) Platform() string { return Platform }

func (b *backend) Init(ctx context.Context, initial model.Region) error {
	return b.engine.Open(ctx, toBounds(initial), b.onEvent)
}

// onEvent runs on the engine's goroutine.
func (b *backend) onEvent(ev Event) {
	s := b.s
	switch ev.Type {
	case EventLoad:
		s.Dispatch(func() {
			s.Layout(toViewport(ev.Size))
			s.Ready()
		})
	case EventMoveStart:
		s.Logger().Debug("map move started")
	case EventMove:
		s.Dispatch(func() { s.Region(toRegion(ev.Bounds), false) })
	case EventMoveEnd:
		s.Dispatch(func() { s.Region(toRegion(ev.Bounds), true) })
	case EventClick:
		s.Dispatch(func() { b.click(ev) })
	case EventResize:
		s.Dispatch(func() { s.Layout(toViewport(ev.Size)) })
	case EventError:
		msg := ev.Message
		if msg == "" {
			msg = "unknown map error"
		}
		s.Dispatch(func() { s.Fail(errors.New(msg)) })
	default:
		s.Logger().Debug("unknown map event ignored", "type", ev.Type)
	}
}

// click hit-tests markers first; the engine only reports map clicks.
func (b *backend) click(ev Event) {
	at := model.Location{Latitude: ev.LatLng.Lat, Longitude: ev.LatLng.Lng}
	tolLat, tolLng := b.toleranceDegrees()
	if id, ok := b.hits.Hit(at, tolLat, tolLng); ok {
		b.s.MarkerPress(id, at)
		return
	}
	b.s.Press(at)
}

func (b *backend) toleranceDegrees() (float64, float64) {
	vp := b.s.Viewport()
	if vp.WidthPx <= 0 || vp.HeightPx <= 0 {
		return 0, 0
	}
	reg := b.s.CurrentRegion()
	return b.tolerance * reg.LatitudeDelta / float64(vp.HeightPx),
		b.tolerance * reg.LongitudeDelta / float64(vp.WidthPx)
}

func (b *backend) AnimateCamera(reg model.Region, d time.Duration) {
	b.engine.FlyToBounds(toBounds(reg), d.Seconds())
}

func (b *backend) ApplyMarkers(p reconcile.Plan) {
	for _, id := range p.Remove {
		b.engine.RemoveLayer(id)
		b.hits.Remove(id)
		delete(b.z, id)
	}
	for _, m := range p.Add {
		b.z[m.ID] = b.nextZ
		b.nextZ++
	}
	// no z-order primitive: layers whose offset changed are upserted again
	var moved []string
	if p.Reorder {
		for i, id := range p.Order {
			if z, ok := b.z[id]; !ok || z != i {
				b.z[id] = i
				moved = append(moved, id)
			}
		}
		b.nextZ = len(p.Order)
	}

	sent := make(map[string]bool, len(p.Update)+len(p.Add))
	for _, m := range p.Update {
		b.upsert(m)
		sent[m.ID] = true
	}
	for _, m := range p.Add {
		b.upsert(m)
		sent[m.ID] = true
	}
	if len(moved) == 0 {
		return
	}
	byID := make(map[string]model.Marker, len(p.Order))
	for _, m := range b.s.Markers() {
		if _, dup := byID[m.ID]; !dup {
			byID[m.ID] = m
		}
	}
	for _, id := range moved {
		if m, ok := byID[id]; ok && !sent[id] {
			b.upsert(m)
		}
	}
}

func (b *backend) upsert(m model.Marker) {
	z := b.z[m.ID]
	b.hits.Upsert(m.ID, m.Location, z)
	b.engine.UpsertMarker(MarkerLayer{
		ID:           m.ID,
		LatLng:       LatLng{Lat: m.Location.Latitude, Lng: m.Location.Longitude},
		Title:        m.Title,
		Icon:         b.icons.Get(m.Color),
		ZIndexOffset: z,
	})
}

func (b *backend) SetUserLocation(loc *model.Location) {
	if loc == nil {
		b.engine.SetUserDot(nil)
		return
	}
	b.engine.SetUserDot(&LatLng{Lat: loc.Latitude, Lng: loc.Longitude})
}

func (b *backend) Release() {
	b.engine.Close()
	b.hits.Reset()
	b.z = map[string]int{}
	b.nextZ = 0
}

func toBounds(r model.Region) Bounds {
	bb := r.Bounds()
	return Bounds{South: bb.South, West: bb.West, North: bb.North, East: bb.East}
}

func toRegion(b Bounds) model.Region {
	return model.BBox{South: b.South, West: b.West, North: b.North, East: b.East}.Region()
}

func toViewport(sz Size) model.Viewport {
	return model.Viewport{WidthPx: sz.W, HeightPx: sz.H}
}
