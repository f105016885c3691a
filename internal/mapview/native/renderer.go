package native

import (
	"context"
	"time"

	"github.com/mohammed-shakir/safemap/internal/core/model"
	"github.com/mohammed-shakir/safemap/internal/mapview"
	"github.com/mohammed-shakir/safemap/internal/mapview/reconcile"
	"github.com/mohammed-shakir/safemap/internal/mapview/session"
)

const Platform = "native"

type Options = session.Options

// Renderer binds a native Engine to the map component contract.
type Renderer struct {
	s *session.Session
}

// backend adapts Engine to session.Backend and runs on the session loop.
type backend struct {
	s      *session.Session
	engine Engine
	zIndex map[string]int
	nextZ  int
}

var _ mapview.Component = (*Renderer)(nil)

func New(engine Engine, opts Options) *Renderer {
	opts.Platform = Platform
	b := &backend{engine: engine, zIndex: map[string]int{}}
	b.s = session.New(b, opts)
	return &Renderer{s: b.s}
}

func (r *Renderer) Mount(ctx context.Context, props model.Props) error {
	return r.s.Mount(ctx, props)
}

func (r *Renderer) Update(props model.Props) { r.s.Update(props) }

func (r *Renderer) Ref() mapview.Ref { return r.s.Ref() }

func (r *Renderer) Unmount() { r.s.Unmount() }

func (r *Renderer) Platform() string { return Platform }

// --- session.Backend ---

func (b *backend) Init(ctx context.Context, initial model.Region) error {
	s := b.s
	cb := Callbacks{
		OnMapReady: func() { s.Dispatch(s.Ready) },
		OnLayout: func(w, h int) {
			s.Dispatch(func() { s.Layout(model.Viewport{WidthPx: w, HeightPx: h}) })
		},
		OnRegionChange: func(ev RegionEvent) {
			s.Dispatch(func() { s.Region(toRegion(ev.Camera), false) })
		},
		OnRegionChangeComplete: func(ev RegionEvent) {
			s.Dispatch(func() { s.Region(toRegion(ev.Camera), true) })
		},
		OnPress: func(ev TapEvent) {
			s.Dispatch(func() { s.Press(toLocation(ev.Coordinate)) })
		},
		OnMarkerPress: func(id string, at LatLng) {
			s.Dispatch(func() { s.MarkerPress(id, toLocation(at)) })
		},
		OnError: func(err error) {
			s.Dispatch(func() { s.Fail(err) })
		},
	}
	return b.engine.Init(ctx, toCamera(initial), cb)
}

func (b *backend) AnimateCamera(reg model.Region, d time.Duration) {
	b.engine.AnimateCamera(toCamera(reg), d)
}

func (b *backend) ApplyMarkers(p reconcile.Plan) {
	for _, id := range p.Remove {
		b.engine.RemoveMarker(id)
		delete(b.zIndex, id)
	}
	for _, m := range p.Update {
		b.engine.UpdateMarker(b.spec(m))
	}
	for _, m := range p.Add {
		b.zIndex[m.ID] = b.nextZ
		b.nextZ++
		b.engine.AddMarker(b.spec(m))
	}
	if p.Reorder {
		for i, id := range p.Order {
			b.zIndex[id] = i
		}
		b.nextZ = len(p.Order)
		b.engine.SetZOrder(p.Order)
	}
}

func (b *backend) SetUserLocation(loc *model.Location) {
	if loc == nil {
		b.engine.SetUserLocation(nil)
		return
	}
	pos := LatLng{Lat: loc.Latitude, Lng: loc.Longitude}
	b.engine.SetUserLocation(&pos)
}

func (b *backend) Release() {
	b.engine.Release()
	b.zIndex = map[string]int{}
	b.nextZ = 0
}

func (b *backend) spec(m model.Marker) MarkerSpec {
	return MarkerSpec{
		ID:       m.ID,
		Position: LatLng{Lat: m.Location.Latitude, Lng: m.Location.Longitude},
		Title:    m.Title,
		PinColor: model.PinColor(m.Color),
		ZIndex:   b.zIndex[m.ID],
	}
}

func toCamera(reg model.Region) Camera {
	return Camera{
		Center: LatLng{Lat: reg.Latitude, Lng: reg.Longitude},
		Span:   Span{Lat: reg.LatitudeDelta, Lng: reg.LongitudeDelta},
	}
}

func toRegion(c Camera) model.Region {
	return model.Region{
		Latitude:       c.Center.Lat,
		Longitude:      c.Center.Lng,
		LatitudeDelta:  c.Span.Lat,
		LongitudeDelta: c.Span.Lng,
	}
}

func toLocation(p LatLng) model.Location {
	return model.Location{Latitude: p.Lat, Longitude: p.Lng}
}
