package mapview

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mohammed-shakir/safemap/internal/core/model"
	"github.com/mohammed-shakir/safemap/internal/core/observability"
)

// Handle is the Ref given to callers. It forwards to the renderer while the
// renderer is mounted and turns into a no-op once Invalidate is called.
type Handle struct {
	platform string
	log      *slog.Logger
	target   atomic.Pointer[refTarget]
	final    atomic.Pointer[model.Region]
}

type refTarget struct{ Ref }

var _ Ref = (*Handle)(nil)

func NewHandle(platform string, target Ref, log *slog.Logger) *Handle {
	if log == nil {
		log = slog.Default()
	}
	h := &Handle{platform: platform, log: log}
	h.target.Store(&refTarget{target})
	return h
}

func (h *Handle) AnimateToRegion(r model.Region, duration time.Duration) {
	if t := h.live("animate_to_region"); t != nil {
		t.AnimateToRegion(r, duration)
	}
}

func (h *Handle) FitToMarkers(ids []string, paddingPx float64) {
	if t := h.live("fit_to_markers"); t != nil {
		t.FitToMarkers(ids, paddingPx)
	}
}

func (h *Handle) GetCurrentRegion() model.Region {
	if t := h.target.Load(); t != nil {
		return t.GetCurrentRegion()
	}
	if r := h.final.Load(); r != nil {
		return *r
	}
	return model.Region{}
}

// Invalidate detaches the handle from its renderer, keeping the last region.
func (h *Handle) Invalidate() {
	t := h.target.Swap(nil)
	if t == nil {
		return
	}
	r := t.GetCurrentRegion()
	h.final.Store(&r)
}

func (h *Handle) Valid() bool { return h.target.Load() != nil }

func (h *Handle) live(op string) Ref {
	t := h.target.Load()
	if t == nil {
		observability.IncStaleRef(h.platform, op)
		h.log.LogAttrs(context.Background(), slog.LevelDebug, "map ref call after unmount ignored",
			slog.String("op", op),
			slog.String("platform", h.platform),
			slog.String("err", ErrStaleRef.Error()),
		)
		return nil
	}
	return t.Ref
}
