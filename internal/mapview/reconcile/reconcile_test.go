package reconcile

import (
	"testing"

	"github.com/mohammed-shakir/safemap/internal/core/model"
)

func mk(id string, lat, lng float64) model.Marker {
	return model.Marker{ID: id, Location: model.Location{Latitude: lat, Longitude: lng}}
}

func ids(ms []model.Marker) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}

func TestApply_FirstRenderAddsEverything(t *testing.T) {
	r := New()
	p := r.Apply([]model.Marker{mk("a", 1, 1), mk("b", 2, 2)})
	if got := ids(p.Add); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("add=%v", got)
	}
	if len(p.Remove) != 0 || len(p.Update) != 0 || p.Reorder {
		t.Fatalf("unexpected plan %+v", p)
	}
}

func TestApply_IdenticalSequenceIsIdempotent(t *testing.T) {
	r := New()
	ms := []model.Marker{mk("a", 1, 1), mk("b", 2, 2), mk("c", 3, 3)}
	r.Apply(ms)

	again := make([]model.Marker, len(ms))
	copy(again, ms)
	p := r.Apply(again)
	if !p.Empty() {
		t.Fatalf("identical re-render produced ops: %+v", p)
	}
}

func TestApply_SwapOneMarker(t *testing.T) {
	r := New()
	r.Apply([]model.Marker{mk("a", 1, 1), mk("b", 2, 2)})
	p := r.Apply([]model.Marker{mk("b", 2, 2), mk("c", 3, 3)})

	if len(p.Remove) != 1 || p.Remove[0] != "a" {
		t.Fatalf("remove=%v want [a]", p.Remove)
	}
	if got := ids(p.Add); len(got) != 1 || got[0] != "c" {
		t.Fatalf("add=%v want [c]", got)
	}
	if len(p.Update) != 0 {
		t.Fatalf("b should be untouched, update=%v", ids(p.Update))
	}
	if p.Reorder {
		t.Fatalf("appending c after b needs no reorder")
	}
}

func TestApply_ChangedFieldsBecomeUpdates(t *testing.T) {
	r := New()
	r.Apply([]model.Marker{mk("a", 1, 1), {ID: "b", Title: "old"}})

	moved := mk("a", 1.5, 1)
	p := r.Apply([]model.Marker{moved, {ID: "b", Title: "new"}})
	if got := ids(p.Update); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("update=%v", got)
	}
	if len(p.Add) != 0 || len(p.Remove) != 0 {
		t.Fatalf("unexpected plan %+v", p)
	}
}

func TestApply_ReorderReportsFullOrder(t *testing.T) {
	r := New()
	r.Apply([]model.Marker{mk("a", 1, 1), mk("b", 2, 2)})
	p := r.Apply([]model.Marker{mk("b", 2, 2), mk("a", 1, 1)})
	if p.Ops() != 0 {
		t.Fatalf("reorder must not add/remove: %+v", p)
	}
	if !p.Reorder || len(p.Order) != 2 || p.Order[0] != "b" || p.Order[1] != "a" {
		t.Fatalf("order=%v reorder=%v", p.Order, p.Reorder)
	}
}

func TestApply_DuplicateIDsKeepFirst(t *testing.T) {
	r := New()
	p := r.Apply([]model.Marker{mk("a", 1, 1), mk("a", 9, 9)})
	if len(p.Add) != 1 || p.Add[0].Location.Latitude != 1 {
		t.Fatalf("add=%+v", p.Add)
	}
	if len(p.Duplicates) != 1 || p.Duplicates[0] != "a" {
		t.Fatalf("duplicates=%v", p.Duplicates)
	}
}

func TestReset_ForgetsRenderedSet(t *testing.T) {
	r := New()
	r.Apply([]model.Marker{mk("a", 1, 1)})
	r.Reset()
	if r.Len() != 0 {
		t.Fatalf("len=%d after reset", r.Len())
	}
	p := r.Apply([]model.Marker{mk("a", 1, 1)})
	if len(p.Add) != 1 {
		t.Fatalf("expected re-add after reset, plan=%+v", p)
	}
}

func TestFingerprint_SeparatesTitleAndColor(t *testing.T) {
	a := model.Marker{ID: "x", Title: "ab", Color: "c"}
	b := model.Marker{ID: "x", Title: "a", Color: "bc"}
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatalf("title/color boundary collides")
	}
	if Fingerprint(a) != Fingerprint(model.Marker{ID: "other", Title: "ab", Color: "c"}) {
		t.Fatalf("fingerprint must not depend on id")
	}
}
