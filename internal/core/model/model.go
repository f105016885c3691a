// Package model defines the map contract types shared by every renderer and caller.
package model

import (
	"errors"
	"fmt"
	"math"
)

// coordinates exposed through events are rounded to this many decimals
const precision = 1e6

// Round6 rounds v to 6 decimal places.
func Round6(v float64) float64 {
	return math.Round(v*precision) / precision
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) {
		return errors.New("coordinate is NaN")
	}
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude %.6f out of range [-90,90]", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude %.6f out of range [-180,180]", l.Longitude)
	}
	return nil
}

func (l Location) Rounded() Location {
	return Location{Latitude: Round6(l.Latitude), Longitude: Round6(l.Longitude)}
}

func (l Location) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Latitude, l.Longitude)
}

// Region is the visible camera viewport: a center plus span in degrees.
type Region struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitudeDelta"`
	LongitudeDelta float64 `json:"longitudeDelta"`
}

func (r Region) Center() Location {
	return Location{Latitude: r.Latitude, Longitude: r.Longitude}
}

func (r Region) Validate() error {
	if err := r.Center().Validate(); err != nil {
		return fmt.Errorf("region center: %w", err)
	}
	if !(r.LatitudeDelta > 0) || !(r.LongitudeDelta > 0) {
		return fmt.Errorf("region deltas must be > 0 (got %.6f,%.6f)", r.LatitudeDelta, r.LongitudeDelta)
	}
	return nil
}

func (r Region) Rounded() Region {
	return Region{
		Latitude:       Round6(r.Latitude),
		Longitude:      Round6(r.Longitude),
		LatitudeDelta:  Round6(r.LatitudeDelta),
		LongitudeDelta: Round6(r.LongitudeDelta),
	}
}

// Bounds returns the south-west and north-east corners of the region.
func (r Region) Bounds() BBox {
	return BBox{
		South: r.Latitude - r.LatitudeDelta/2,
		West:  r.Longitude - r.LongitudeDelta/2,
		North: r.Latitude + r.LatitudeDelta/2,
		East:  r.Longitude + r.LongitudeDelta/2,
	}
}

func (r Region) Contains(l Location) bool {
	return r.Bounds().Contains(l)
}

// String representation in the same 6-decimal format as events
func (r Region) String() string {
	return fmt.Sprintf("%.6f,%.6f/%.6f,%.6f", r.Latitude, r.Longitude, r.LatitudeDelta, r.LongitudeDelta)
}

type BBox struct {
	South, West float64
	North, East float64
}

func (b BBox) Contains(l Location) bool {
	return l.Latitude >= b.South && l.Latitude <= b.North &&
		l.Longitude >= b.West && l.Longitude <= b.East
}

// Region converts the box back to a center/span region.
func (b BBox) Region() Region {
	return Region{
		Latitude:       (b.South + b.North) / 2,
		Longitude:      (b.West + b.East) / 2,
		LatitudeDelta:  b.North - b.South,
		LongitudeDelta: b.East - b.West,
	}
}

type Marker struct {
	ID       string   `json:"id"`
	Location Location `json:"location"`
	Title    string   `json:"title,omitempty"`
	Color    string   `json:"color,omitempty"`
}

type PressEvent struct {
	Coordinate Location
}

type MarkerPressEvent struct {
	MarkerID   string
	Coordinate Location
}

type PermissionState string

const (
	PermissionPending PermissionState = "pending"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

// Props is the per-render configuration handed to a map component.
// A new Props value replaces the previous one; renderers never mutate it.
type Props struct {
	InitialRegion     Region
	Markers           []Marker
	ShowsUserLocation bool

	OnPress        func(PressEvent)
	OnRegionChange func(Region)
	OnMarkerPress  func(MarkerPressEvent)
	OnUserLocation func(Location)
	OnPermission   func(PermissionState)
	OnError        func(error)
}

// Clone returns a copy whose marker slice does not alias the caller's.
func (p Props) Clone() Props {
	cp := p
	if p.Markers != nil {
		cp.Markers = make([]Marker, len(p.Markers))
		copy(cp.Markers, p.Markers)
	}
	return cp
}
