// Package mapview defines the map component contract satisfied by every renderer.
package mapview

import (
	"context"
	"time"

	"github.com/mohammed-shakir/safemap/internal/core/model"
)

// Ref is the imperative handle a screen uses to drive a mounted map.
type Ref interface {
	AnimateToRegion(r model.Region, duration time.Duration)
	FitToMarkers(ids []string, paddingPx float64)
	// GetCurrentRegion returns the last known region without querying the engine.
	GetCurrentRegion() model.Region
}

type Component interface {
	Mount(ctx context.Context, props model.Props) error
	Update(props model.Props)
	Ref() Ref
	Unmount()
	Platform() string
}
