// Package reconcile computes minimal marker operations between two renders.
package reconcile

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/safemap/internal/core/model"
)

// Plan lists the engine operations that turn the previous marker set into the next one.
// Add and Update follow the order of the incoming sequence.
type Plan struct {
	Add    []model.Marker
	Update []model.Marker
	Remove []string

	// Order is the full bottom-to-top draw order, set only when appending
	// Add to the surviving markers would not produce it.
	Order   []string
	Reorder bool

	// ids seen more than once in the input; later occurrences are ignored
	Duplicates []string
}

func (p Plan) Ops() int { return len(p.Add) + len(p.Update) + len(p.Remove) }

func (p Plan) Empty() bool { return p.Ops() == 0 && !p.Reorder }

// Reconciler remembers the marker set last handed to the engine.
// It is not safe for concurrent use; renderers call it from their event loop.
type Reconciler struct {
	prints map[string]uint64
	order  []string
}

func New() *Reconciler {
	return &Reconciler{prints: map[string]uint64{}}
}

// Apply diffs next against the remembered set by id, records next as the
// new rendered set and returns the plan.
func (r *Reconciler) Apply(next []model.Marker) Plan {
	var plan Plan

	nextPrints := make(map[string]uint64, len(next))
	nextOrder := make([]string, 0, len(next))
	for _, m := range next {
		if _, dup := nextPrints[m.ID]; dup {
			plan.Duplicates = append(plan.Duplicates, m.ID)
			continue
		}
		fp := Fingerprint(m)
		nextPrints[m.ID] = fp
		nextOrder = append(nextOrder, m.ID)

		prev, ok := r.prints[m.ID]
		switch {
		case !ok:
			plan.Add = append(plan.Add, m)
		case prev != fp:
			plan.Update = append(plan.Update, m)
		}
	}

	expected := make([]string, 0, len(nextOrder))
	for _, id := range r.order {
		if _, keep := nextPrints[id]; keep {
			expected = append(expected, id)
		} else {
			plan.Remove = append(plan.Remove, id)
		}
	}
	for _, m := range plan.Add {
		expected = append(expected, m.ID)
	}
	if !sameOrder(expected, nextOrder) {
		plan.Reorder = true
		plan.Order = nextOrder
	}

	r.prints = nextPrints
	r.order = nextOrder
	return plan
}

// Reset forgets the rendered set, so the next Apply adds every marker.
func (r *Reconciler) Reset() {
	r.prints = map[string]uint64{}
	r.order = nil
}

func (r *Reconciler) Len() int { return len(r.order) }

// Fingerprint hashes the renderable fields of a marker.
func Fingerprint(m model.Marker) uint64 {
	d := xxhash.New()
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(m.Location.Latitude))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(m.Location.Longitude))
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(m.Title)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(m.Color)
	return d.Sum64()
}

func sameOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
