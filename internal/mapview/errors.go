package mapview

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrInvalidRegion    = errors.New("invalid region")
	ErrEngineInit       = errors.New("map engine init failed")
	ErrStaleRef         = errors.New("map ref used after unmount")
)

// EngineError normalizes an engine failure so callers never see engine-specific shapes.
type EngineError struct {
	Platform string
	Op       string
	Err      error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s map engine %s: %v", e.Platform, e.Op, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// InitError wraps err so that errors.Is(err, ErrEngineInit) holds.
func InitError(platform string, err error) error {
	return &EngineError{Platform: platform, Op: "init", Err: fmt.Errorf("%w: %w", ErrEngineInit, err)}
}

// Kind maps an error onto the taxonomy label used in logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrInvalidRegion):
		return "invalid_region"
	case errors.Is(err, ErrEngineInit):
		return "engine_init"
	case errors.Is(err, ErrStaleRef):
		return "stale_ref"
	default:
		return "engine"
	}
}
