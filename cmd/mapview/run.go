package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/safemap/internal/core/config"
	"github.com/mohammed-shakir/safemap/internal/core/model"
	"github.com/mohammed-shakir/safemap/internal/location"
	"github.com/mohammed-shakir/safemap/internal/location/fixed"
	"github.com/mohammed-shakir/safemap/internal/location/h3filter"
	mylog "github.com/mohammed-shakir/safemap/internal/logger"
	"github.com/mohammed-shakir/safemap/internal/mapview/native"
	"github.com/mohammed-shakir/safemap/internal/mapview/platform"
	"github.com/mohammed-shakir/safemap/internal/metrics"
)

type runFlags struct {
	scene    string
	logLevel string
	logFile  string
	console  bool
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Mount the map with a scene and log its events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVarP(&f.scene, "scene", "s", "", "Scene JSON file (default: built-in demo scene)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level, overrides LOG_LEVEL")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "Write logs to this file (default: stderr, discarded for the terminal map)")
	cmd.Flags().BoolVar(&f.console, "console", false, "Human readable logs")
	return cmd
}

func run(ctx context.Context, f *runFlags) error {
	cfg := config.FromEnv()
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if ctx == nil {
		ctx = context.Background()
	}

	out, closeLog, err := logOutput(platform.Name, f.logFile)
	if err != nil {
		return err
	}
	defer closeLog()
	zl := mylog.Build(mylog.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole || f.console,
		Platform:  platform.Name,
		Component: "mapview",
	}, out)
	log := mylog.NewSlog(&zl)

	sc, err := loadScene(f.scene)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prov := metrics.Init(metrics.Config{
		Enabled: cfg.MetricsEnabled,
		Addr:    cfg.MetricsAddr,
		Build:   metrics.BuildInfo{Version: Version, Platform: platform.Name},
	})
	go func() {
		if err := prov.Serve(ctx, log); err != nil {
			log.Error("metrics server", "err", err)
		}
	}()

	loc, err := newLocation(cfg)
	if err != nil {
		return err
	}

	m, err := platform.New(platform.Deps{Config: cfg, Logger: log, Location: loc})
	if err != nil {
		return err
	}

	props := sceneProps(sc, log)
	if err := m.Mount(ctx, props); err != nil {
		return err
	}
	log.Info("map mounted", "platform", m.Platform(), "markers", len(sc.Markers))

	ref := m.Ref()
	if sc.AnimateTo != nil {
		ref.AnimateToRegion(*sc.AnimateTo, cfg.Map.FitDuration)
	}
	if sc.Fit != nil {
		ref.FitToMarkers(sc.Fit.IDs, sc.Fit.PaddingPx)
	}

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case <-m.Done:
		log.Info("map engine exited")
	}
	m.Unmount()
	log.Info("map unmounted", "last_region", ref.GetCurrentRegion().String())
	return nil
}

// logOutput picks where logs go. The terminal map owns stdout and stderr,
// so the native build logs nowhere unless a file is given.
func logOutput(platformName, path string) (io.Writer, func(), error) {
	if path != "" {
		lf, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return lf, func() { _ = lf.Close() }, nil
	}
	if platformName == native.Platform {
		return io.Discard, func() {}, nil
	}
	return os.Stderr, func() {}, nil
}

func newLocation(cfg config.Config) (location.Service, error) {
	lc := cfg.Location
	inner := fixed.New(lc.Fixed, lc.Denied, lc.Interval)
	svc, err := h3filter.New(inner, lc.H3Res)
	if err != nil {
		return nil, fmt.Errorf("location: %w", err)
	}
	return svc, nil
}

// sceneProps plays the screen: it passes the scene through and logs what the map reports.
func sceneProps(sc scene, log *slog.Logger) model.Props {
	return model.Props{
		InitialRegion:     sc.InitialRegion,
		Markers:           sc.Markers,
		ShowsUserLocation: sc.ShowsUserLocation,
		OnPress: func(e model.PressEvent) {
			log.Info("map pressed", "at", e.Coordinate.String())
		},
		OnRegionChange: func(r model.Region) {
			log.Info("region changed", "region", r.String())
		},
		OnMarkerPress: func(e model.MarkerPressEvent) {
			log.Info("marker pressed", "id", e.MarkerID)
		},
		OnUserLocation: func(l model.Location) {
			log.Debug("user location", "at", l.String())
		},
		OnPermission: func(s model.PermissionState) {
			log.Info("location permission", "state", string(s))
		},
		OnError: func(err error) {
			log.Error("map error", "err", err)
		},
	}
}
