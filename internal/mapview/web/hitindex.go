package web

import (
	"math"

	"github.com/dhconnelly/rtreego"

	"github.com/mohammed-shakir/safemap/internal/core/model"
)

const (
	dimensions  = 2
	minChildren = 2
	maxChildren = 16

	pointSize = 1e-9
)

type hitItem struct {
	id   string
	loc  model.Location
	z    int
	rect *rtreego.Rect
}

func (h *hitItem) Bounds() *rtreego.Rect { return h.rect }

// hitIndex finds the marker under a click. Points are stored as (lat, lng).
type hitIndex struct {
	tree  *rtreego.Rtree
	items map[string]*hitItem
}

func newHitIndex() *hitIndex {
	return &hitIndex{
		tree:  rtreego.NewTree(dimensions, minChildren, maxChildren),
		items: map[string]*hitItem{},
	}
}

func (x *hitIndex) Upsert(id string, loc model.Location, z int) {
	if old, ok := x.items[id]; ok {
		if old.loc == loc {
			old.z = z
			return
		}
		x.tree.Delete(old)
	}
	it := &hitItem{
		id:   id,
		loc:  loc,
		z:    z,
		rect: rtreego.Point{loc.Latitude, loc.Longitude}.ToRect(pointSize),
	}
	x.items[id] = it
	x.tree.Insert(it)
}

func (x *hitIndex) Remove(id string) {
	it, ok := x.items[id]
	if !ok {
		return
	}
	x.tree.Delete(it)
	delete(x.items, id)
}

func (x *hitIndex) Len() int { return len(x.items) }

func (x *hitIndex) Reset() {
	x.tree = rtreego.NewTree(dimensions, minChildren, maxChildren)
	x.items = map[string]*hitItem{}
}

// Hit returns the marker closest to at within tolLat/tolLng degrees. Ties go
// to the marker drawn on top.
func (x *hitIndex) Hit(at model.Location, tolLat, tolLng float64) (string, bool) {
	if len(x.items) == 0 {
		return "", false
	}
	tolLat = math.Max(tolLat, pointSize)
	tolLng = math.Max(tolLng, pointSize)
	box, err := rtreego.NewRect(
		rtreego.Point{at.Latitude - tolLat, at.Longitude - tolLng},
		[]float64{2 * tolLat, 2 * tolLng},
	)
	if err != nil {
		return "", false
	}

	var best *hitItem
	bestDist := math.Inf(1)
	for _, s := range x.tree.SearchIntersect(box) {
		it := s.(*hitItem)
		// normalized so a pixel counts the same on both axes
		dLat := (it.loc.Latitude - at.Latitude) / tolLat
		dLng := (it.loc.Longitude - at.Longitude) / tolLng
		d := dLat*dLat + dLng*dLng
		if d > 1 {
			continue
		}
		if best == nil || d < bestDist || (d == bestDist && it.z > best.z) {
			best, bestDist = it, d
		}
	}
	if best == nil {
		return "", false
	}
	return best.id, true
}
