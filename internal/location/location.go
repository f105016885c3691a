// Package location defines the permission and position capabilities the map core consumes.
package location

import (
	"context"
	"sync"

	"github.com/mohammed-shakir/safemap/internal/core/model"
)

type Service interface {
	// RequestForegroundPermission may block for as long as the user takes to answer.
	RequestForegroundPermission(ctx context.Context) (model.PermissionState, error)
	// WatchPosition delivers samples to fn until the subscription is stopped or ctx ends.
	WatchPosition(ctx context.Context, fn func(model.Location)) (Subscription, error)
}

type Subscription interface {
	Stop()
}

// StopFunc adapts a function to Subscription; repeated Stop calls run it once.
func StopFunc(fn func()) Subscription {
	return &stopOnce{fn: fn}
}

type stopOnce struct {
	once sync.Once
	fn   func()
}

func (s *stopOnce) Stop() {
	s.once.Do(func() {
		if s.fn != nil {
			s.fn()
		}
	})
}
