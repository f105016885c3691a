package h3filter

import (
	"context"
	"testing"

	"github.com/mohammed-shakir/safemap/internal/core/model"
	"github.com/mohammed-shakir/safemap/internal/location/locationtest"
)

func TestNew_RejectsBadResolution(t *testing.T) {
	if _, err := New(locationtest.New(), 16); err == nil {
		t.Fatalf("expected error for res 16")
	}
	if _, err := New(locationtest.New(), -1); err == nil {
		t.Fatalf("expected error for res -1")
	}
}

func TestWatchPosition_DropsSamplesInSameCell(t *testing.T) {
	fake := locationtest.New()
	svc, err := New(fake, 9)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var got []model.Location
	sub, err := svc.WatchPosition(context.Background(), func(l model.Location) { got = append(got, l) })
	if err != nil {
		t.Fatalf("WatchPosition: %v", err)
	}
	defer sub.Stop()

	base := model.Location{Latitude: 23.8103, Longitude: 90.4125}
	jitter := model.Location{Latitude: 23.81031, Longitude: 90.41251}
	far := model.Location{Latitude: 23.9, Longitude: 90.5}

	c1, _ := Cell(base, 9)
	c2, _ := Cell(jitter, 9)
	if c1 != c2 {
		t.Skipf("jitter sample crosses a res-9 cell boundary (%s vs %s)", c1, c2)
	}

	fake.Emit(base)
	fake.Emit(jitter)
	fake.Emit(far)
	fake.Emit(base)

	if len(got) != 3 {
		t.Fatalf("forwarded=%d want 3 (%v)", len(got), got)
	}
	if got[1] != far || got[2] != base {
		t.Fatalf("unexpected forwarded samples %v", got)
	}
}

func TestRequestForegroundPermission_Delegates(t *testing.T) {
	fake := locationtest.New()
	svc, _ := New(fake, 12)
	fake.Deny()
	st, err := svc.RequestForegroundPermission(context.Background())
	if err != nil || st != model.PermissionDenied {
		t.Fatalf("state=%v err=%v", st, err)
	}
}
