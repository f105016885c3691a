// Package web renders the map contract on a browser map library with a
// mouse and bounds based event model.
package web

import "context"

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Point is a container pixel position, origin top-left.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

const (
	EventLoad      = "load"
	EventMoveStart = "movestart"
	EventMove      = "move"
	EventMoveEnd   = "moveend"
	EventClick     = "click"
	EventResize    = "resize"
	EventError     = "error"
)

// Event is one map event. Which fields are set depends on Type: Bounds for
// the move family, LatLng and Point for click, Size for resize and load,
// Message for error.
type Event struct {
	Type    string `json:"type"`
	Bounds  Bounds `json:"bounds"`
	LatLng  LatLng `json:"latlng"`
	Point   Point  `json:"point"`
	Size    Size   `json:"size"`
	Message string `json:"message,omitempty"`
}

// Icon describes how a marker is drawn.
type Icon struct {
	Color string `json:"color"`
	HTML  string `json:"html"`
}

type MarkerLayer struct {
	ID           string `json:"id"`
	LatLng       LatLng `json:"latlng"`
	Title        string `json:"title,omitempty"`
	Icon         Icon   `json:"icon"`
	ZIndexOffset int    `json:"zIndexOffset"`
}

// Engine is a browser map. It has no synchronous camera getter; the view is
// only observable through move events. on may be called from any goroutine
// and must not be called after Close.
type Engine interface {
	Open(ctx context.Context, initial Bounds, on func(Event)) error
	FlyToBounds(b Bounds, seconds float64)
	UpsertMarker(m MarkerLayer)
	RemoveLayer(id string)
	// SetUserDot moves the user location dot; nil removes it.
	SetUserDot(pos *LatLng)
	Close()
}
