//go:build mapweb

package platform

import (
	"errors"

	"github.com/mohammed-shakir/safemap/internal/engine/bridge"
	"github.com/mohammed-shakir/safemap/internal/mapview/web"
)

const Name = web.Platform

func New(d Deps) (*Map, error) {
	cfg := d.Config
	if cfg.BridgeAddr == "" {
		return nil, errors.New("platform web: bridge address is empty")
	}
	so := d.sessionOptions()
	eng := bridge.New(bridge.Options{Addr: cfg.BridgeAddr, Logger: so.Logger})
	r := web.New(eng, web.Options{
		Options:        so,
		HitTolerancePx: cfg.Map.HitTolerancePx,
		IconCacheSize:  cfg.Map.IconCacheSize,
	})
	return &Map{Component: r}, nil
}
