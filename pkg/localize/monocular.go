package localize

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/teslashibe/go-spotter/pkg/detection"
	"github.com/teslashibe/go-spotter/pkg/frame"
)

// Monocular reference defaults: a 10 cm target seen through a 1000 px lens.
const (
	DefaultReferenceSize = 0.1
	DefaultFocalLength   = 1000.0
)

// LateralMode selects how x and y are derived without depth.
type LateralMode int

const (
	// LateralImageScale scales the raw pixel coordinate by the meters-per-pixel
	// ratio at the target: x = u·H/d. Only meaningful near the optical axis.
	LateralImageScale LateralMode = iota

	// LateralPinhole measures from the image center: x = (u - cx)·z/f.
	LateralPinhole
)

// Monocular estimates position from the apparent size of a target of
// known physical size (similar triangles).
type Monocular struct {
	ReferenceSize float64 // H, meters
	FocalLength   float64 // f, pixels
	Lateral       LateralMode
}

// DefaultMonocular returns the reference configuration.
func DefaultMonocular() Monocular {
	return Monocular{
		ReferenceSize: DefaultReferenceSize,
		FocalLength:   DefaultFocalLength,
		Lateral:       LateralImageScale,
	}
}

// Validate checks the reference size and focal length.
func (m Monocular) Validate() error {
	if m.ReferenceSize <= 0 {
		return fmt.Errorf("reference size must be positive, got %v", m.ReferenceSize)
	}
	if m.FocalLength <= 0 {
		return fmt.Errorf("focal length must be positive, got %v", m.FocalLength)
	}
	return nil
}

// Name implements Localizer.
func (m *Monocular) Name() string { return StrategyMonocular }

var errZeroDiameter = errors.New("circle has zero diameter")

// Localize computes z = H·f/d with d the pixel diameter.
func (m *Monocular) Localize(c detection.Circle, f *frame.Frame) (Point, error) {
	d := float64(c.Diameter())
	if d <= 0 {
		return Point{}, errZeroDiameter
	}

	u, v := float64(c.Center.X), float64(c.Center.Y)
	z := m.ReferenceSize * m.FocalLength / d

	var x, y float64
	switch m.Lateral {
	case LateralPinhole:
		if f == nil || f.Color.Empty() {
			return Point{}, frame.ErrEmptyFrame
		}
		cx, cy := float64(f.Color.Cols())/2, float64(f.Color.Rows())/2
		x = (u - cx) * z / m.FocalLength
		y = (v - cy) * z / m.FocalLength
	default:
		x = u * m.ReferenceSize / d
		y = v * m.ReferenceSize / d
	}

	return Point{
		Position:  r3.Vector{X: x, Y: y, Z: z},
		U:         c.Center.X,
		V:         c.Center.Y,
		Timestamp: stamp(f),
	}, nil
}
