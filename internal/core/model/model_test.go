package model

import (
	"math"
	"testing"
)

func TestLocationValidate(t *testing.T) {
	cases := []struct {
		loc Location
		ok  bool
	}{
		{Location{23.8, 90.4}, true},
		{Location{-90, -180}, true},
		{Location{90, 180}, true},
		{Location{90.0001, 0}, false},
		{Location{0, -180.5}, false},
		{Location{math.NaN(), 0}, false},
	}
	for _, c := range cases {
		err := c.loc.Validate()
		if (err == nil) != c.ok {
			t.Fatalf("Validate(%v) err=%v want ok=%v", c.loc, err, c.ok)
		}
	}
}

func TestRegionValidate_RejectsDegenerateDeltas(t *testing.T) {
	if err := (Region{23.8, 90.4, 0.05, 0.05}).Validate(); err != nil {
		t.Fatalf("valid region rejected: %v", err)
	}
	if err := (Region{23.8, 90.4, 0, 0.05}).Validate(); err == nil {
		t.Fatalf("zero latitude delta accepted")
	}
	if err := (Region{23.8, 90.4, 0.05, -1}).Validate(); err == nil {
		t.Fatalf("negative longitude delta accepted")
	}
	if err := (Region{95, 90.4, 0.05, 0.05}).Validate(); err == nil {
		t.Fatalf("out of range center accepted")
	}
}

func TestRounded_SixDecimals(t *testing.T) {
	got := Location{23.81034567, 90.41259999}.Rounded()
	if got.Latitude != 23.810346 || got.Longitude != 90.4126 {
		t.Fatalf("got=%v", got)
	}
}

func TestBBoxRoundTrip(t *testing.T) {
	r := Region{23.8, 90.4, 0.05, 0.08}
	back := r.Bounds().Region().Rounded()
	if back != r {
		t.Fatalf("round trip got=%v want=%v", back, r)
	}
}

func TestFitRegion_ContainsAllLocations(t *testing.T) {
	locs := []Location{
		{23.7806, 90.2794},
		{23.8759, 90.3795},
		{23.7104, 90.4074},
		{23.8103, 90.4125},
	}
	for _, pad := range []float64{0, 20, 80, 1000} {
		r, err := FitRegion(locs, pad, Viewport{WidthPx: 360, HeightPx: 640}, 0.005)
		if err != nil {
			t.Fatalf("FitRegion pad=%v: %v", pad, err)
		}
		rr := r.Rounded()
		for _, l := range locs {
			if !rr.Contains(l) {
				t.Fatalf("pad=%v region %v does not contain %v", pad, rr, l)
			}
		}
	}
}

func TestFitRegion_PaddingWidensSpan(t *testing.T) {
	locs := []Location{{0, 0}, {1, 1}}
	vp := Viewport{WidthPx: 100, HeightPx: 100}
	plain, _ := FitRegion(locs, 0, vp, 0)
	padded, _ := FitRegion(locs, 25, vp, 0)
	// 25px of 100px on both sides leaves half the viewport for the markers
	if math.Abs(padded.LatitudeDelta-2*plain.LatitudeDelta) > 1e-5 {
		t.Fatalf("padded delta=%v plain=%v", padded.LatitudeDelta, plain.LatitudeDelta)
	}
}

func TestFitRegion_SingleLocationUsesMinDelta(t *testing.T) {
	r, err := FitRegion([]Location{{23.8, 90.4}}, 0, Viewport{}, 0.01)
	if err != nil {
		t.Fatalf("FitRegion: %v", err)
	}
	if r.LatitudeDelta < 0.01 || r.LongitudeDelta < 0.01 {
		t.Fatalf("deltas below min: %v", r)
	}
	if r.Latitude != 23.8 || r.Longitude != 90.4 {
		t.Fatalf("center=%v", r.Center())
	}
}

func TestFitRegion_Empty(t *testing.T) {
	if _, err := FitRegion(nil, 10, Viewport{}, 0.01); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestPropsClone_DoesNotAliasMarkers(t *testing.T) {
	p := Props{Markers: []Marker{{ID: "a"}}}
	cp := p.Clone()
	p.Markers[0].ID = "mutated"
	if cp.Markers[0].ID != "a" {
		t.Fatalf("clone aliases caller slice")
	}
}

func TestPinColor(t *testing.T) {
	cases := map[string]string{
		"#ABC":      "#aabbcc",
		" #1976D2 ": "#1976d2",
		"":          DefaultPinColor,
		"RED":       DefaultPinColor,
		"#12345z":   DefaultPinColor,
		"#12345":    DefaultPinColor,
		"#0f0":      "#00ff00",
	}
	for in, want := range cases {
		if got := PinColor(in); got != want {
			t.Fatalf("PinColor(%q) got=%q want=%q", in, got, want)
		}
	}
}
