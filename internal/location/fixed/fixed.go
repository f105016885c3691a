// Package fixed provides a location service that reports a configured coordinate.
package fixed

import (
	"context"
	"errors"
	"time"

	"github.com/mohammed-shakir/safemap/internal/core/model"
	"github.com/mohammed-shakir/safemap/internal/location"
)

type Provider struct {
	Loc      model.Location
	Denied   bool
	Interval time.Duration
}

var _ location.Service = (*Provider)(nil)

func New(loc model.Location, denied bool, interval time.Duration) *Provider {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Provider{Loc: loc, Denied: denied, Interval: interval}
}

func (p *Provider) RequestForegroundPermission(ctx context.Context) (model.PermissionState, error) {
	if err := ctx.Err(); err != nil {
		return model.PermissionPending, err
	}
	if p.Denied {
		return model.PermissionDenied, nil
	}
	return model.PermissionGranted, nil
}

func (p *Provider) WatchPosition(ctx context.Context, fn func(model.Location)) (location.Subscription, error) {
	if p.Denied {
		return nil, errors.New("fixed location: permission denied")
	}
	if err := p.Loc.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		t := time.NewTicker(p.Interval)
		defer t.Stop()
		fn(p.Loc)
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				fn(p.Loc)
			}
		}
	}()
	return location.StopFunc(cancel), nil
}
