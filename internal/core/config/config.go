package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mohammed-shakir/safemap/internal/core/model"
)

type MapCfg struct {
	DebounceWindow time.Duration
	QueueCap       int
	FitDuration    time.Duration
	FitMinDelta    float64
	HitTolerancePx float64
	IconCacheSize  int
}

type LocationCfg struct {
	Fixed    model.Location
	Denied   bool
	Interval time.Duration
	H3Res    int
}

type Config struct {
	LogLevel       string
	LogConsole     bool
	Map            MapCfg
	Location       LocationCfg
	BridgeAddr     string
	TermWidth      int
	TermHeight     int
	MetricsEnabled bool
	MetricsAddr    string
}

var defaultFixed = model.Location{Latitude: 23.8103, Longitude: 90.4125}

func FromEnv() Config {
	h3res := getint("LOCATION_H3_RES", 12)
	if h3res < 0 || h3res > 15 {
		h3res = 12
	}
	queueCap := getint("MAP_QUEUE_CAP", 16)
	if queueCap <= 0 {
		queueCap = 16
	}

	return Config{
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: getbool("LOG_CONSOLE", false),
		Map: MapCfg{
			DebounceWindow: getduration("MAP_DEBOUNCE_WINDOW", 150*time.Millisecond),
			QueueCap:       queueCap,
			FitDuration:    getduration("MAP_FIT_DURATION", 300*time.Millisecond),
			FitMinDelta:    getfloat("MAP_FIT_MIN_DELTA", 0.005),
			HitTolerancePx: getfloat("MAP_HIT_TOLERANCE_PX", 12),
			IconCacheSize:  getint("MAP_ICON_CACHE", 64),
		},
		Location: LocationCfg{
			Fixed:    parseLocation(getenv("LOCATION_FIXED", ""), defaultFixed),
			Denied:   strings.EqualFold(getenv("LOCATION_PERMISSION", "granted"), "denied"),
			Interval: getduration("LOCATION_INTERVAL", 5*time.Second),
			H3Res:    h3res,
		},
		BridgeAddr:     getenv("BRIDGE_ADDR", ":8090"),
		TermWidth:      getint("TERM_MAP_WIDTH", 80),
		TermHeight:     getint("TERM_MAP_HEIGHT", 24),
		MetricsEnabled: getbool("METRICS_ENABLED", false),
		MetricsAddr:    getenv("METRICS_ADDR", ":9090"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// parse "lat,lng"; falls back to def on anything malformed or out of range
func parseLocation(s string, def model.Location) model.Location {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return def
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return def
	}
	loc := model.Location{Latitude: lat, Longitude: lng}
	if loc.Validate() != nil {
		return def
	}
	return loc
}
