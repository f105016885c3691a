//go:build !mapweb

package platform

import (
	"fmt"

	"github.com/mohammed-shakir/safemap/internal/engine/term"
	"github.com/mohammed-shakir/safemap/internal/mapview/native"
)

const Name = native.Platform

func New(d Deps) (*Map, error) {
	cfg := d.Config
	if cfg.TermWidth < 10 || cfg.TermHeight < 5 {
		return nil, fmt.Errorf("platform %s: terminal map %dx%d too small", Name, cfg.TermWidth, cfg.TermHeight)
	}
	opts := d.sessionOptions()
	eng := term.New(term.Options{
		Width:  cfg.TermWidth,
		Height: cfg.TermHeight,
		Input:  d.Input,
		Output: d.Output,
		Logger: opts.Logger,
	})
	return &Map{Component: native.New(eng, opts), Done: eng.Done()}, nil
}
