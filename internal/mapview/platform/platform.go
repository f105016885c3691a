// Package platform binds the map component to exactly one renderer at build
// time. Building with the mapweb tag selects the web renderer on the browser
// bridge; any other build selects the native renderer on the terminal engine.
package platform

import (
	"io"
	"log/slog"

	"github.com/mohammed-shakir/safemap/internal/core/config"
	"github.com/mohammed-shakir/safemap/internal/location"
	"github.com/mohammed-shakir/safemap/internal/mapview"
	"github.com/mohammed-shakir/safemap/internal/mapview/session"
)

type Deps struct {
	Config   config.Config
	Logger   *slog.Logger
	Location location.Service

	// terminal engine only; nil means the process stdin/stdout
	Input  io.Reader
	Output io.Writer
}

// Map is a resolved component. Done is closed when the engine goes away on
// its own, e.g. the user quit the terminal map. It is nil for engines that
// only stop on Unmount.
type Map struct {
	mapview.Component
	Done <-chan struct{}
}

func (d Deps) sessionOptions() session.Options {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return session.Options{
		Logger:         log,
		Location:       d.Location,
		DebounceWindow: d.Config.Map.DebounceWindow,
		QueueCap:       d.Config.Map.QueueCap,
		FitDuration:    d.Config.Map.FitDuration,
		FitMinDelta:    d.Config.Map.FitMinDelta,
	}
}
