package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsHandler_Smoke(t *testing.T) {
	ObserveRegionEvent("native", true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "map_region_events_total") {
		t.Fatalf("metrics payload did not contain expected metric names; got:\n%s", body)
	}
}

func TestMapMetrics_LabelsAndDefaultPlatform(t *testing.T) {
	SetPlatform("web")
	t.Cleanup(func() { SetPlatform("native") })

	ObserveRegionEvent("", false)
	ObserveRefCommand("", "animate_to_region", "queued")
	IncQueueCollapsed("")
	AddMarkerOps("native", "add", 2)
	AddMarkerOps("native", "remove", 0)
	IncError("web", "")
	IncStaleRef("native", "fit_to_markers")

	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()

	for _, want := range []string{
		`map_region_events_total{outcome="coalesced",platform="web"}`,
		`map_ref_commands_total{op="animate_to_region",outcome="queued",platform="web"}`,
		`map_queue_collapsed_total{platform="web"}`,
		`map_marker_ops_total{op="add",platform="native"}`,
		`map_errors_total{kind="unknown",platform="web"}`,
		`map_stale_ref_calls_total{op="fit_to_markers",platform="native"}`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing sample %s in:\n%s", want, body)
		}
	}
	if strings.Contains(body, `map_marker_ops_total{op="remove"`) {
		t.Fatalf("zero-sized marker op batch should not create a series")
	}
}
