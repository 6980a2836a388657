// Package localize turns a detected circle into a 3D point in meters
// relative to the sensor.
package localize

import (
	"fmt"
	"time"

	"github.com/golang/geo/r3"
	"github.com/teslashibe/go-spotter/pkg/detection"
	"github.com/teslashibe/go-spotter/pkg/frame"
)

// Point is one localized detection.
type Point struct {
	Position  r3.Vector // meters
	U, V      int       // source pixel
	Timestamp time.Time
}

// Localizer converts a circle on a frame into a Point. The two
// implementations are Monocular and Deprojector.
type Localizer interface {
	Localize(c detection.Circle, f *frame.Frame) (Point, error)
	Name() string
}

// Strategy names, also used in status output.
const (
	StrategyMonocular = "monocular"
	StrategyDepth     = "depth"
)

// ForSource picks the localizer and matching detector preset once, at
// source construction: sources with depth intrinsics get deprojection,
// everything else falls back to the similar-triangles estimate.
func ForSource(src frame.Source, mono Monocular) (Localizer, detection.Params, error) {
	if intr, ok := src.Intrinsics(); ok {
		d, err := NewDeprojector(intr.Depth)
		if err != nil {
			return nil, detection.Params{}, fmt.Errorf("depth localizer: %w", err)
		}
		return d, detection.DepthParams(), nil
	}
	if err := mono.Validate(); err != nil {
		return nil, detection.Params{}, fmt.Errorf("monocular localizer: %w", err)
	}
	return &mono, detection.MonocularParams(), nil
}

func stamp(f *frame.Frame) time.Time {
	if f != nil && !f.Timestamp.IsZero() {
		return f.Timestamp
	}
	return time.Now()
}
