package observability

import (
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var platformLabel atomic.Value

func init() {
	platformLabel.Store("native")
}

// SetPlatform sets the default platform label for helpers called with "".
func SetPlatform(p string) {
	if p == "" {
		p = "native"
	}
	platformLabel.Store(p)
}

func getPlatform(p string) string {
	if p != "" {
		return p
	}
	if v := platformLabel.Load(); v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "native"
}

var (
	regionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "map_region_events_total",
			Help: "Engine region-change events by outcome (emitted to callers or coalesced).",
		},
		[]string{"platform", "outcome"},
	)

	refCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "map_ref_commands_total",
			Help: "Ref commands by operation and outcome.",
		},
		[]string{"platform", "op", "outcome"},
	)

	queueCollapsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "map_queue_collapsed_total",
			Help: "Pre-ready commands superseded by a later command of the same kind.",
		},
		[]string{"platform"},
	)

	markerOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "map_marker_ops_total",
			Help: "Marker operations sent to the engine by reconciliation.",
		},
		[]string{"platform", "op"},
	)

	mapErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "map_errors_total",
			Help: "Normalized map errors by kind.",
		},
		[]string{"platform", "kind"},
	)

	staleRefCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "map_stale_ref_calls_total",
			Help: "Ref calls ignored because the renderer was unmounted.",
		},
		[]string{"platform", "op"},
	)

	mountedRenderers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "map_mounted_renderers",
			Help: "Currently mounted map renderers.",
		},
		[]string{"platform"},
	)
)

func ObserveRegionEvent(platform string, emitted bool) {
	outcome := "coalesced"
	if emitted {
		outcome = "emitted"
	}
	regionEvents.WithLabelValues(getPlatform(platform), outcome).Inc()
}

// ObserveRefCommand records a ref command; outcome is one of
// applied|queued|rejected|noop.
func ObserveRefCommand(platform, op, outcome string) {
	refCommands.WithLabelValues(getPlatform(platform), op, outcome).Inc()
}

func IncQueueCollapsed(platform string) {
	queueCollapsed.WithLabelValues(getPlatform(platform)).Inc()
}

func AddMarkerOps(platform, op string, n int) {
	if n <= 0 {
		return
	}
	markerOps.WithLabelValues(getPlatform(platform), op).Add(float64(n))
}

func IncError(platform, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	mapErrors.WithLabelValues(getPlatform(platform), kind).Inc()
}

func IncStaleRef(platform, op string) {
	staleRefCalls.WithLabelValues(getPlatform(platform), op).Inc()
}

func RendererMounted(platform string, delta int) {
	mountedRenderers.WithLabelValues(getPlatform(platform)).Add(float64(delta))
}

// Init additionally registers the map collectors on reg, used when the
// binary exposes a dedicated registry instead of the default one. Calling it
// again for the same registry is a no-op.
func Init(reg prometheus.Registerer, enabled bool) {
	if !enabled || reg == nil {
		return
	}
	for _, c := range []prometheus.Collector{regionEvents, refCommands, queueCollapsed,
		markerOps, mapErrors, staleRefCalls, mountedRenderers} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}
