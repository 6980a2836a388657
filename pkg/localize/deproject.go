package localize

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/teslashibe/go-spotter/pkg/detection"
	"github.com/teslashibe/go-spotter/pkg/frame"
)

// undistortIterations bounds the fixed-point Brown–Conrady inversion.
const undistortIterations = 10

// Deprojector maps a pixel plus its depth sample to a 3D point in the
// depth sensor's optical frame.
type Deprojector struct {
	intr frame.CameraIntrinsics
}

// NewDeprojector validates the depth-stream intrinsics.
func NewDeprojector(intr frame.CameraIntrinsics) (*Deprojector, error) {
	if err := intr.Validate(); err != nil {
		return nil, err
	}
	return &Deprojector{intr: intr}, nil
}

// Name implements Localizer.
func (d *Deprojector) Name() string { return StrategyDepth }

// Intrinsics returns the depth-stream intrinsics in use.
func (d *Deprojector) Intrinsics() frame.CameraIntrinsics { return d.intr }

// Localize samples depth at the circle center and deprojects it. A zero
// or unreadable depth value yields a point at the origin rather than an
// error; a missing depth map or an out-of-range pixel is an error.
func (d *Deprojector) Localize(c detection.Circle, f *frame.Frame) (Point, error) {
	if f == nil || f.Depth == nil {
		return Point{}, frame.ErrNoDepth
	}
	z, err := f.Depth.Distance(c.Center.X, c.Center.Y)
	if err != nil {
		return Point{}, fmt.Errorf("depth sample: %w", err)
	}

	return Point{
		Position:  Deproject(d.intr, float64(c.Center.X), float64(c.Center.Y), z),
		U:         c.Center.X,
		V:         c.Center.Y,
		Timestamp: stamp(f),
	}, nil
}

// Deproject applies the inverse pinhole model, correcting lens distortion
// first when the intrinsics carry a Brown–Conrady model.
func Deproject(intr frame.CameraIntrinsics, u, v, depth float64) r3.Vector {
	x := (u - intr.Ppx) / intr.Fx
	y := (v - intr.Ppy) / intr.Fy

	if intr.Distorted() {
		switch intr.Model {
		case frame.DistortionInverseBrownConrady:
			x, y = applyBrownConrady(intr.Coeffs, x, y)
		case frame.DistortionBrownConrady:
			x, y = UndistortBrownConrady(intr.Coeffs, x, y)
		}
	}

	return r3.Vector{X: depth * x, Y: depth * y, Z: depth}
}

// applyBrownConrady evaluates the radial/tangential polynomial on
// normalized coordinates.
func applyBrownConrady(k [5]float64, x, y float64) (float64, float64) {
	r2 := x*x + y*y
	f := 1 + k[0]*r2 + k[1]*r2*r2 + k[4]*r2*r2*r2
	ux := x*f + 2*k[2]*x*y + k[3]*(r2+2*x*x)
	uy := y*f + 2*k[3]*x*y + k[2]*(r2+2*y*y)
	return ux, uy
}

// UndistortBrownConrady inverts applyBrownConrady by fixed-point iteration.
func UndistortBrownConrady(k [5]float64, xd, yd float64) (float64, float64) {
	x, y := xd, yd
	for i := 0; i < undistortIterations; i++ {
		r2 := x*x + y*y
		icdist := 1 / (1 + ((k[4]*r2+k[1])*r2+k[0])*r2)
		dx := 2*k[2]*x*y + k[3]*(r2+2*x*x)
		dy := 2*k[3]*x*y + k[2]*(r2+2*y*y)
		x = (xd - dx) * icdist
		y = (yd - dy) * icdist
	}
	return x, y
}
