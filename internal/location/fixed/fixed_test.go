package fixed

import (
	"context"
	"testing"
	"time"

	"github.com/mohammed-shakir/safemap/internal/core/model"
)

func TestProvider_GrantedEmitsImmediately(t *testing.T) {
	loc := model.Location{Latitude: 23.8103, Longitude: 90.4125}
	p := New(loc, false, time.Hour)

	st, err := p.RequestForegroundPermission(context.Background())
	if err != nil || st != model.PermissionGranted {
		t.Fatalf("state=%v err=%v", st, err)
	}

	got := make(chan model.Location, 1)
	sub, err := p.WatchPosition(context.Background(), func(l model.Location) {
		select {
		case got <- l:
		default:
		}
	})
	if err != nil {
		t.Fatalf("WatchPosition: %v", err)
	}
	defer sub.Stop()

	select {
	case l := <-got:
		if l != loc {
			t.Fatalf("got=%v want=%v", l, loc)
		}
	case <-time.After(time.Second):
		t.Fatalf("no sample delivered")
	}
}

func TestProvider_Denied(t *testing.T) {
	p := New(model.Location{}, true, 0)
	st, err := p.RequestForegroundPermission(context.Background())
	if err != nil || st != model.PermissionDenied {
		t.Fatalf("state=%v err=%v", st, err)
	}
	if _, err := p.WatchPosition(context.Background(), func(model.Location) {}); err == nil {
		t.Fatalf("expected watch error when denied")
	}
}
