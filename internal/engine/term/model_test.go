package term

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mohammed-shakir/safemap/internal/mapview/native"
)

type recorder struct {
	ready         int
	layouts       [][2]int
	changes       []native.RegionEvent
	completes     []native.RegionEvent
	presses       []native.TapEvent
	markerPresses []string
}

func (r *recorder) callbacks() native.Callbacks {
	return native.Callbacks{
		OnMapReady:             func() { r.ready++ },
		OnLayout:               func(w, h int) { r.layouts = append(r.layouts, [2]int{w, h}) },
		OnRegionChange:         func(ev native.RegionEvent) { r.changes = append(r.changes, ev) },
		OnRegionChangeComplete: func(ev native.RegionEvent) { r.completes = append(r.completes, ev) },
		OnPress:                func(ev native.TapEvent) { r.presses = append(r.presses, ev) },
		OnMarkerPress:          func(id string, _ native.LatLng) { r.markerPresses = append(r.markerPresses, id) },
	}
}

var startCam = native.Camera{Center: native.LatLng{Lat: 23.8, Lng: 90.4}, Span: native.Span{Lat: 0.2, Lng: 0.4}}

func apply(t *testing.T, m mapModel, msg tea.Msg) (mapModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	got, ok := next.(mapModel)
	if !ok {
		t.Fatalf("Update returned %T, want mapModel", next)
	}
	return got, cmd
}

func TestReady_ReportsLayoutThenReady(t *testing.T) {
	rec := &recorder{}
	m := newMapModel(startCam, 40, 21, rec.callbacks())
	m, _ = apply(t, m, m.Init()())

	if rec.ready != 1 {
		t.Fatalf("ready=%d want 1", rec.ready)
	}
	if len(rec.layouts) != 1 || rec.layouts[0] != [2]int{40 * cellW, 20 * cellH} {
		t.Fatalf("layouts=%v", rec.layouts)
	}

	m, _ = apply(t, m, tea.WindowSizeMsg{Width: 60, Height: 31})
	if len(rec.layouts) != 2 || rec.layouts[1] != [2]int{60 * cellW, 30 * cellH} {
		t.Fatalf("resize not reported: %v", rec.layouts)
	}
	_ = m
}

func TestPanGesture_EndsOnIdle(t *testing.T) {
	rec := &recorder{}
	m := newMapModel(startCam, 40, 21, rec.callbacks())

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyUp})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if len(rec.changes) != 2 || !rec.changes[0].Gesture {
		t.Fatalf("changes=%v", rec.changes)
	}
	if got := m.cam.Center.Lat; got <= startCam.Center.Lat {
		t.Fatalf("up did not move north: %v", got)
	}

	// stale idle tick from the first key is ignored
	m, _ = apply(t, m, idleMsg{seq: 1})
	if len(rec.completes) != 0 {
		t.Fatalf("gesture ended early")
	}
	m, _ = apply(t, m, idleMsg{seq: m.gestureSeq})
	if len(rec.completes) != 1 || !rec.completes[0].Gesture || rec.completes[0].Camera != m.cam {
		t.Fatalf("completes=%v", rec.completes)
	}
}

func TestZoom_ClampsSpan(t *testing.T) {
	rec := &recorder{}
	m := newMapModel(startCam, 40, 21, rec.callbacks())
	for i := 0; i < 20; i++ {
		m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")})
	}
	if m.cam.Span.Lat != minDelta {
		t.Fatalf("span=%v want clamp at %v", m.cam.Span.Lat, minDelta)
	}
}

func TestAnimation_FramesThenComplete(t *testing.T) {
	rec := &recorder{}
	m := newMapModel(startCam, 40, 21, rec.callbacks())
	m.frame = 10 * time.Millisecond
	to := native.Camera{Center: native.LatLng{Lat: 24, Lng: 90}, Span: native.Span{Lat: 0.1, Lng: 0.1}}

	m, cmd := apply(t, m, cameraMsg{to: to, d: 40 * time.Millisecond})
	if cmd == nil || m.anim == nil || m.anim.steps != 4 {
		t.Fatalf("animation not started: %+v", m.anim)
	}
	for i := 0; i < 4; i++ {
		m, _ = apply(t, m, frameMsg{seq: m.animSeq})
	}
	if len(rec.changes) != 3 || rec.changes[0].Gesture {
		t.Fatalf("changes=%d want 3 non-gesture frames", len(rec.changes))
	}
	if len(rec.completes) != 1 || m.cam != to {
		t.Fatalf("animation did not land: cam=%v completes=%d", m.cam, len(rec.completes))
	}
}

func TestAnimation_ZeroDurationJumps(t *testing.T) {
	rec := &recorder{}
	m := newMapModel(startCam, 40, 21, rec.callbacks())
	to := native.Camera{Center: native.LatLng{Lat: 10, Lng: 10}, Span: native.Span{Lat: 1, Lng: 1}}
	m, cmd := apply(t, m, cameraMsg{to: to})
	if cmd != nil || m.cam != to || len(rec.completes) != 1 {
		t.Fatalf("cam=%v cmd=%v completes=%d", m.cam, cmd != nil, len(rec.completes))
	}
}

func TestAnimation_InterruptedByGesture(t *testing.T) {
	rec := &recorder{}
	m := newMapModel(startCam, 40, 21, rec.callbacks())
	m.frame = 10 * time.Millisecond
	m, _ = apply(t, m, cameraMsg{to: native.Camera{Center: native.LatLng{Lat: 0, Lng: 0}, Span: native.Span{Lat: 1, Lng: 1}}, d: time.Second})
	oldSeq := m.animSeq
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m, _ = apply(t, m, frameMsg{seq: oldSeq})
	if m.anim != nil || len(rec.completes) != 0 {
		t.Fatalf("stale frame continued the animation")
	}
}

func TestTap_MarkerOrMap(t *testing.T) {
	rec := &recorder{}
	m := newMapModel(startCam, 40, 21, rec.callbacks())
	m, _ = apply(t, m, upsertMsg{m: native.MarkerSpec{ID: "low", Position: startCam.Center, ZIndex: 0}})
	m, _ = apply(t, m, upsertMsg{m: native.MarkerSpec{ID: "top", Position: startCam.Center, ZIndex: 1}})

	x, y, ok := m.cellOf(startCam.Center)
	if !ok {
		t.Fatalf("center not on grid")
	}
	m, _ = apply(t, m, tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if len(rec.markerPresses) != 1 || rec.markerPresses[0] != "top" {
		t.Fatalf("marker presses=%v", rec.markerPresses)
	}

	m, _ = apply(t, m, zorderMsg{ids: []string{"top", "low"}})
	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(rec.markerPresses) != 2 || rec.markerPresses[1] != "low" {
		t.Fatalf("z-order not applied: %v", rec.markerPresses)
	}

	m, _ = apply(t, m, removeMsg{id: "top"})
	m, _ = apply(t, m, removeMsg{id: "low"})
	m, _ = apply(t, m, tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if len(rec.presses) != 1 {
		t.Fatalf("map press not reported")
	}
	p := rec.presses[0]
	if p.Coordinate.Lat <= startCam.Center.Lat || p.Coordinate.Lng >= startCam.Center.Lng {
		t.Fatalf("top-left tap at %v should be north-west of center", p.Coordinate)
	}
}

func TestView_DrawsMarkersAndStatus(t *testing.T) {
	m := newMapModel(startCam, 40, 11, native.Callbacks{})
	m.markers["a"] = native.MarkerSpec{ID: "a", Position: native.LatLng{Lat: 23.85, Lng: 90.3}, PinColor: "#d32f2f"}
	user := native.LatLng{Lat: 23.75, Lng: 90.5}
	m.user = &user

	out := m.View()
	if !strings.Contains(out, "●") || !strings.Contains(out, "◉") {
		t.Fatalf("marker or user dot missing:\n%s", out)
	}
	if !strings.Contains(out, "markers 1") {
		t.Fatalf("status line missing:\n%s", out)
	}
}

func TestEngine_ReleaseWithoutInit(t *testing.T) {
	e := New(Options{})
	e.Release()
	e.Release()
	select {
	case <-e.Done():
	default:
		t.Fatalf("done not closed")
	}
	e.AddMarker(native.MarkerSpec{ID: "a"})
}
