package main

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mohammed-shakir/safemap/internal/core/model"
)

//go:embed scene.json
var defaultScene []byte

// scene is what a screen would hand the map: props plus the ref calls it
// makes right after mounting.
type scene struct {
	InitialRegion     model.Region   `json:"initialRegion"`
	Markers           []model.Marker `json:"markers"`
	ShowsUserLocation bool           `json:"showsUserLocation"`
	Fit               *struct {
		IDs       []string `json:"ids"`
		PaddingPx float64  `json:"paddingPx"`
	} `json:"fit,omitempty"`
	AnimateTo *model.Region `json:"animateTo,omitempty"`
}

func loadScene(path string) (scene, error) {
	data := defaultScene
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return scene{}, fmt.Errorf("read scene: %w", err)
		}
		data = b
	}
	var sc scene
	if err := json.Unmarshal(data, &sc); err != nil {
		return scene{}, fmt.Errorf("decode scene: %w", err)
	}
	if err := sc.InitialRegion.Validate(); err != nil {
		return scene{}, fmt.Errorf("scene initialRegion: %w", err)
	}
	seen := make(map[string]bool, len(sc.Markers))
	for _, m := range sc.Markers {
		if m.ID == "" {
			return scene{}, errors.New("scene marker without id")
		}
		if seen[m.ID] {
			return scene{}, fmt.Errorf("scene marker %q: duplicate id", m.ID)
		}
		seen[m.ID] = true
		if err := m.Location.Validate(); err != nil {
			return scene{}, fmt.Errorf("scene marker %q: %w", m.ID, err)
		}
	}
	return sc, nil
}
