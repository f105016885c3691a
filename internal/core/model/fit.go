package model

import (
	"errors"
	"math"
)

// maximum share of the viewport one side of padding may take
const maxPadFraction = 0.45

// rounding slack so a region rounded to 6 decimals still covers its points
const roundSlack = 2 / precision

type Viewport struct {
	WidthPx  int
	HeightPx int
}

// FitRegion returns the smallest region whose box covers every location,
// widened so that paddingPx screen pixels stay free on each side of the
// given viewport. Spans narrower than minDelta are widened to minDelta.
func FitRegion(locs []Location, paddingPx float64, vp Viewport, minDelta float64) (Region, error) {
	if len(locs) == 0 {
		return Region{}, errors.New("fit region: no locations")
	}
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLng, maxLng := math.Inf(1), math.Inf(-1)
	for _, l := range locs {
		if err := l.Validate(); err != nil {
			return Region{}, err
		}
		minLat = math.Min(minLat, l.Latitude)
		maxLat = math.Max(maxLat, l.Latitude)
		minLng = math.Min(minLng, l.Longitude)
		maxLng = math.Max(maxLng, l.Longitude)
	}

	latSpan := math.Max(maxLat-minLat, minDelta)
	lngSpan := math.Max(maxLng-minLng, minDelta)

	r := Region{
		Latitude:       (minLat + maxLat) / 2,
		Longitude:      (minLng + maxLng) / 2,
		LatitudeDelta:  math.Min(latSpan/(1-2*padFraction(paddingPx, vp.HeightPx))+roundSlack, 180),
		LongitudeDelta: math.Min(lngSpan/(1-2*padFraction(paddingPx, vp.WidthPx))+roundSlack, 360),
	}
	if err := r.Validate(); err != nil {
		return Region{}, err
	}
	return r, nil
}

func padFraction(paddingPx float64, sizePx int) float64 {
	if sizePx <= 0 || paddingPx <= 0 || math.IsNaN(paddingPx) {
		return 0
	}
	return math.Min(paddingPx/float64(sizePx), maxPadFraction)
}
