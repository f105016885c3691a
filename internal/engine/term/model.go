package term

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mohammed-shakir/safemap/internal/mapview/native"
)

// nominal cell size reported to the renderer as pixels
const (
	cellW = 8
	cellH = 16
)

const (
	panStep  = 0.1
	maxDelta = 170.0
	minDelta = 0.0005
)

type readyMsg struct{}

type cameraMsg struct {
	to native.Camera
	d  time.Duration
}

type upsertMsg struct{ m native.MarkerSpec }

type removeMsg struct{ id string }

type zorderMsg struct{ ids []string }

type userMsg struct{ pos *native.LatLng }

type frameMsg struct{ seq int }

type idleMsg struct{ seq int }

type animation struct {
	from, to native.Camera
	step     int
	steps    int
}

var (
	gridStyle   = lipgloss.NewStyle().Faint(true)
	crossStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2979ff")).Bold(true)
	statusStyle = lipgloss.NewStyle().Reverse(true)
)

type mapModel struct {
	cam     native.Camera
	cols    int
	rows    int
	markers map[string]native.MarkerSpec
	user    *native.LatLng
	cb      native.Callbacks

	ready      bool
	gesture    bool
	gestureSeq int
	anim       *animation
	animSeq    int

	idleEnd time.Duration
	frame   time.Duration
}

func newMapModel(cam native.Camera, width, height int, cb native.Callbacks) mapModel {
	m := mapModel{
		cam:     cam,
		markers: map[string]native.MarkerSpec{},
		cb:      cb,
		idleEnd: 250 * time.Millisecond,
		frame:   40 * time.Millisecond,
	}
	m.resize(width, height)
	return m
}

func (m *mapModel) resize(width, height int) {
	m.cols = max(width, 1)
	m.rows = max(height-1, 1)
}

func (m mapModel) Init() tea.Cmd {
	return func() tea.Msg { return readyMsg{} }
}

func (m mapModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case readyMsg:
		m.ready = true
		m.layout()
		if m.cb.OnMapReady != nil {
			m.cb.OnMapReady()
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		if m.ready {
			m.layout()
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.tap(msg.X, msg.Y)
		}
		return m, nil
	case cameraMsg:
		return m.startAnimation(msg)
	case frameMsg:
		return m.advance(msg)
	case idleMsg:
		if msg.seq == m.gestureSeq && m.gesture {
			m.gesture = false
			m.regionComplete(true)
		}
		return m, nil
	case upsertMsg:
		m.markers[msg.m.ID] = msg.m
		return m, nil
	case removeMsg:
		delete(m.markers, msg.id)
		return m, nil
	case zorderMsg:
		for i, id := range msg.ids {
			if s, ok := m.markers[id]; ok {
				s.ZIndex = i
				m.markers[id] = s
			}
		}
		return m, nil
	case userMsg:
		m.user = msg.pos
		return m, nil
	}
	return m, nil
}

func (m mapModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		return m.gestureTo(m.cam.Center.Lat+panStep*m.cam.Span.Lat, m.cam.Center.Lng, 1)
	case "down", "j":
		return m.gestureTo(m.cam.Center.Lat-panStep*m.cam.Span.Lat, m.cam.Center.Lng, 1)
	case "left", "h":
		return m.gestureTo(m.cam.Center.Lat, m.cam.Center.Lng-panStep*m.cam.Span.Lng, 1)
	case "right", "l":
		return m.gestureTo(m.cam.Center.Lat, m.cam.Center.Lng+panStep*m.cam.Span.Lng, 1)
	case "+", "=":
		return m.gestureTo(m.cam.Center.Lat, m.cam.Center.Lng, 0.5)
	case "-":
		return m.gestureTo(m.cam.Center.Lat, m.cam.Center.Lng, 2)
	case "enter", " ":
		x, y := m.centerCell()
		m.tap(x, y)
	}
	return m, nil
}

// gestureTo moves the camera as a user gesture. The gesture ends after
// idleEnd without further input.
func (m mapModel) gestureTo(lat, lng, zoom float64) (tea.Model, tea.Cmd) {
	m.anim = nil
	m.animSeq++

	span := native.Span{
		Lat: clamp(m.cam.Span.Lat*zoom, minDelta, maxDelta),
		Lng: clamp(m.cam.Span.Lng*zoom, minDelta, 2*maxDelta),
	}
	m.cam = native.Camera{
		Center: native.LatLng{
			Lat: clamp(lat, -90+span.Lat/2, 90-span.Lat/2),
			Lng: clamp(lng, -180, 180),
		},
		Span: span,
	}
	m.gesture = true
	m.gestureSeq++
	if m.cb.OnRegionChange != nil {
		m.cb.OnRegionChange(native.RegionEvent{Camera: m.cam, Gesture: true})
	}
	seq := m.gestureSeq
	return m, tea.Tick(m.idleEnd, func(time.Time) tea.Msg { return idleMsg{seq: seq} })
}

func (m mapModel) startAnimation(msg cameraMsg) (tea.Model, tea.Cmd) {
	m.animSeq++
	steps := 0
	if m.frame > 0 {
		steps = int(msg.d / m.frame)
	}
	if steps <= 1 {
		m.anim = nil
		m.cam = msg.to
		m.regionComplete(false)
		return m, nil
	}
	m.anim = &animation{from: m.cam, to: msg.to, steps: steps}
	return m, m.frameCmd()
}

func (m mapModel) advance(msg frameMsg) (tea.Model, tea.Cmd) {
	if m.anim == nil || msg.seq != m.animSeq {
		return m, nil
	}
	a := *m.anim
	a.step++
	if a.step >= a.steps {
		m.anim = nil
		m.cam = a.to
		m.regionComplete(false)
		return m, nil
	}
	m.anim = &a
	m.cam = lerpCamera(a.from, a.to, easeInOut(float64(a.step)/float64(a.steps)))
	if m.cb.OnRegionChange != nil {
		m.cb.OnRegionChange(native.RegionEvent{Camera: m.cam})
	}
	return m, m.frameCmd()
}

func (m mapModel) frameCmd() tea.Cmd {
	seq := m.animSeq
	return tea.Tick(m.frame, func(time.Time) tea.Msg { return frameMsg{seq: seq} })
}

func (m mapModel) regionComplete(gesture bool) {
	if m.cb.OnRegionChangeComplete != nil {
		m.cb.OnRegionChangeComplete(native.RegionEvent{Camera: m.cam, Gesture: gesture})
	}
}

func (m mapModel) layout() {
	if m.cb.OnLayout != nil {
		m.cb.OnLayout(m.cols*cellW, m.rows*cellH)
	}
}

func (m mapModel) tap(x, y int) {
	if x < 0 || y < 0 || x >= m.cols || y >= m.rows {
		return
	}
	at := m.cellCenter(x, y)
	if id, ok := m.markerAt(x, y); ok {
		if m.cb.OnMarkerPress != nil {
			m.cb.OnMarkerPress(id, m.markers[id].Position)
		}
		return
	}
	if m.cb.OnPress != nil {
		m.cb.OnPress(native.TapEvent{Coordinate: at, X: x*cellW + cellW/2, Y: y*cellH + cellH/2})
	}
}

func (m mapModel) cellCenter(x, y int) native.LatLng {
	north := m.cam.Center.Lat + m.cam.Span.Lat/2
	west := m.cam.Center.Lng - m.cam.Span.Lng/2
	return native.LatLng{
		Lat: north - (float64(y)+0.5)/float64(m.rows)*m.cam.Span.Lat,
		Lng: west + (float64(x)+0.5)/float64(m.cols)*m.cam.Span.Lng,
	}
}

// cellOf maps a position to its grid cell; ok is false outside the view.
func (m mapModel) cellOf(p native.LatLng) (x, y int, ok bool) {
	north := m.cam.Center.Lat + m.cam.Span.Lat/2
	west := m.cam.Center.Lng - m.cam.Span.Lng/2
	fx := (p.Lng - west) / m.cam.Span.Lng * float64(m.cols)
	fy := (north - p.Lat) / m.cam.Span.Lat * float64(m.rows)
	if fx < 0 || fy < 0 {
		return 0, 0, false
	}
	x, y = int(fx), int(fy)
	return x, y, x < m.cols && y < m.rows
}

func (m mapModel) centerCell() (int, int) {
	if x, y, ok := m.cellOf(m.cam.Center); ok {
		return x, y
	}
	return m.cols / 2, m.rows / 2
}

// markerAt returns the top-most marker drawn in cell (x, y).
func (m mapModel) markerAt(x, y int) (string, bool) {
	best, found := native.MarkerSpec{}, false
	for _, s := range m.markers {
		cx, cy, ok := m.cellOf(s.Position)
		if !ok || cx != x || cy != y {
			continue
		}
		if !found || s.ZIndex > best.ZIndex || (s.ZIndex == best.ZIndex && s.ID > best.ID) {
			best, found = s, true
		}
	}
	return best.ID, found
}

func (m mapModel) View() string {
	grid := make([][]string, m.rows)
	for y := range grid {
		grid[y] = make([]string, m.cols)
		for x := range grid[y] {
			grid[y][x] = gridStyle.Render("·")
		}
	}
	cx, cy := m.centerCell()
	grid[cy][cx] = crossStyle.Render("+")

	specs := make([]native.MarkerSpec, 0, len(m.markers))
	for _, s := range m.markers {
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool {
		if specs[i].ZIndex != specs[j].ZIndex {
			return specs[i].ZIndex < specs[j].ZIndex
		}
		return specs[i].ID < specs[j].ID
	})
	for _, s := range specs {
		if x, y, ok := m.cellOf(s.Position); ok {
			grid[y][x] = lipgloss.NewStyle().Foreground(lipgloss.Color(s.PinColor)).Render("●")
		}
	}
	if m.user != nil {
		if x, y, ok := m.cellOf(*m.user); ok {
			grid[y][x] = userStyle.Render("◉")
		}
	}

	var b strings.Builder
	for _, row := range grid {
		b.WriteString(strings.Join(row, ""))
		b.WriteByte('\n')
	}
	status := fmt.Sprintf(" markers %d  %.5f,%.5f  span %.4f×%.4f  arrows pan  +/- zoom  q quit",
		len(m.markers), m.cam.Center.Lat, m.cam.Center.Lng, m.cam.Span.Lat, m.cam.Span.Lng)
	b.WriteString(statusStyle.Width(m.cols).MaxHeight(1).Render(status))
	return b.String()
}

func lerpCamera(a, b native.Camera, t float64) native.Camera {
	lerp := func(x, y float64) float64 { return x + (y-x)*t }
	return native.Camera{
		Center: native.LatLng{Lat: lerp(a.Center.Lat, b.Center.Lat), Lng: lerp(a.Center.Lng, b.Center.Lng)},
		Span:   native.Span{Lat: lerp(a.Span.Lat, b.Span.Lat), Lng: lerp(a.Span.Lng, b.Span.Lng)},
	}
}

func easeInOut(t float64) float64 {
	return (1 - math.Cos(math.Pi*t)) / 2
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
