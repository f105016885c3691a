package cmdqueue

import "testing"

func TestQueue_FIFO(t *testing.T) {
	q := New[string](4)
	q.Push("", "a")
	q.Push("", "b")
	q.Push("", "c")

	got := q.Drain()
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("drain=%v", got)
	}
	if q.Len() != 0 {
		t.Fatalf("queue not empty after drain")
	}
}

func TestQueue_SameKeyKeepsOnlyLatestAtTail(t *testing.T) {
	q := New[string](8)
	q.Push("camera", "animate-1")
	q.Push("other", "x")
	if !q.Push("camera", "animate-2") {
		t.Fatalf("second camera push should report collapse")
	}
	q.Push("camera", "fit-3")

	got := q.Drain()
	if len(got) != 2 || got[0] != "x" || got[1] != "fit-3" {
		t.Fatalf("drain=%v want [x fit-3]", got)
	}
	if q.Collapsed() != 2 {
		t.Fatalf("collapsed=%d want 2", q.Collapsed())
	}
}

func TestQueue_OverflowDropsOldest(t *testing.T) {
	q := New[int](2)
	q.Push("", 1)
	q.Push("", 2)
	q.Push("", 3)

	got := q.Drain()
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("drain=%v want [2 3]", got)
	}
	if q.Overflow() != 1 {
		t.Fatalf("overflow=%d want 1", q.Overflow())
	}
}

func TestQueue_Reset(t *testing.T) {
	q := New[int](0)
	q.Push("k", 1)
	q.Reset()
	if got := q.Drain(); len(got) != 0 {
		t.Fatalf("drain after reset=%v", got)
	}
}
