// Package native renders the map contract on an on-device map engine with a
// gesture-based event model.
package native

import (
	"context"
	"time"
)

type LatLng struct {
	Lat float64
	Lng float64
}

type Span struct {
	Lat float64
	Lng float64
}

// Camera is the engine's viewport shape: a center and a span.
type Camera struct {
	Center LatLng
	Span   Span
}

type RegionEvent struct {
	Camera  Camera
	Gesture bool
}

type TapEvent struct {
	Coordinate LatLng
	X, Y       int
}

type MarkerSpec struct {
	ID       string
	Position LatLng
	Title    string
	PinColor string
	ZIndex   int
}

// Callbacks may be invoked from any goroutine.
type Callbacks struct {
	OnMapReady             func()
	OnLayout               func(widthPx, heightPx int)
	OnRegionChange         func(RegionEvent)
	OnRegionChangeComplete func(RegionEvent)
	OnPress                func(TapEvent)
	OnMarkerPress          func(id string, at LatLng)
	OnError                func(error)
}

// Engine is the device map engine. Implementations must tolerate Release
// without a prior Init and must stop invoking callbacks after Release.
type Engine interface {
	Init(ctx context.Context, initial Camera, cb Callbacks) error
	AnimateCamera(to Camera, d time.Duration)
	AddMarker(m MarkerSpec)
	UpdateMarker(m MarkerSpec)
	RemoveMarker(id string)
	SetZOrder(ids []string)
	// SetUserLocation moves the user-location dot; nil hides it.
	SetUserLocation(pos *LatLng)
	Release()
}
