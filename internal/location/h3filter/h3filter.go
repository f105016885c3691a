// Package h3filter drops location samples that stay inside the same H3 cell.
package h3filter

import (
	"context"
	"fmt"
	"sync"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/safemap/internal/core/model"
	"github.com/mohammed-shakir/safemap/internal/location"
)

// Service forwards a sample only when it lands in a different cell than the
// previously forwarded one. Resolution 12 cells are roughly 10m across.
type Service struct {
	inner location.Service
	res   int
}

var _ location.Service = (*Service)(nil)

func New(inner location.Service, res int) (*Service, error) {
	if res < 0 || res > 15 {
		return nil, fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return &Service{inner: inner, res: res}, nil
}

func (s *Service) RequestForegroundPermission(ctx context.Context) (model.PermissionState, error) {
	return s.inner.RequestForegroundPermission(ctx)
}

func (s *Service) WatchPosition(ctx context.Context, fn func(model.Location)) (location.Subscription, error) {
	var (
		mu   sync.Mutex
		last h3.Cell
	)
	return s.inner.WatchPosition(ctx, func(loc model.Location) {
		cell, err := h3.LatLngToCell(h3.LatLng{Lat: loc.Latitude, Lng: loc.Longitude}, s.res)
		if err != nil {
			// cannot bucket it, let it through
			fn(loc)
			return
		}
		mu.Lock()
		if cell == last {
			mu.Unlock()
			return
		}
		last = cell
		mu.Unlock()
		fn(loc)
	})
}

// Cell returns the H3 cell id of loc at res, as used by the filter.
func Cell(loc model.Location, res int) (string, error) {
	c, err := h3.LatLngToCell(h3.LatLng{Lat: loc.Latitude, Lng: loc.Longitude}, res)
	if err != nil {
		return "", fmt.Errorf("h3 cell: %w", err)
	}
	return c.String(), nil
}
