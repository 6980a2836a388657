// Package frame defines the per-iteration capture unit shared by the
// spotter pipeline: a color image, an optional aligned depth map, and the
// contract every frame source implements.
package frame

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gocv.io/x/gocv"
)

var (
	// ErrEndOfStream is returned by Source.Next when no more frames will arrive.
	ErrEndOfStream = errors.New("end of stream")

	// ErrNoDepth is returned when a depth sample is requested from a frame
	// that carries no depth map.
	ErrNoDepth = errors.New("frame has no depth map")

	// ErrEmptyFrame marks a frame whose color image holds no pixels.
	ErrEmptyFrame = errors.New("empty color frame")
)

// Frame is one synchronized capture. Downstream components treat it as
// read-only except for the overlay pass, which draws on Color in place.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Color     gocv.Mat  // BGR, 8-bit, 3 channels
	Depth     *DepthMap // nil when the source has no depth stream
}

// Gray returns a new single-channel copy of the color image.
// The caller owns the returned Mat.
func (f *Frame) Gray() (gocv.Mat, error) {
	if f == nil || f.Color.Empty() {
		return gocv.NewMat(), ErrEmptyFrame
	}
	gray := gocv.NewMat()
	switch f.Color.Channels() {
	case 1:
		f.Color.CopyTo(&gray)
	case 4:
		gocv.CvtColor(f.Color, &gray, gocv.ColorBGRAToGray)
	default:
		gocv.CvtColor(f.Color, &gray, gocv.ColorBGRToGray)
	}
	return gray, nil
}

// Close releases the image memory held by the frame.
func (f *Frame) Close() error {
	if f == nil {
		return nil
	}
	return f.Color.Close()
}

// DepthMap is a row-major grid of distances in meters, pixel-aligned with
// the color image. Zero means "no reading".
type DepthMap struct {
	Width  int
	Height int
	Data   []float32
}

// NewDepthMap allocates a zeroed depth map.
func NewDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height),
	}
}

// DepthMapFromUnits converts raw sensor units (e.g. z16) into meters.
func DepthMapFromUnits(width, height int, raw []uint16, unit float64) (*DepthMap, error) {
	if len(raw) != width*height {
		return nil, fmt.Errorf("depth buffer has %d samples, want %dx%d", len(raw), width, height)
	}
	d := NewDepthMap(width, height)
	for i, v := range raw {
		d.Data[i] = float32(float64(v) * unit)
	}
	return d, nil
}

// In reports whether (u, v) lies inside the map.
func (d *DepthMap) In(u, v int) bool {
	return u >= 0 && v >= 0 && u < d.Width && v < d.Height
}

// Set stores a distance in meters at (u, v).
func (d *DepthMap) Set(u, v int, meters float32) {
	if d.In(u, v) {
		d.Data[v*d.Width+u] = meters
	}
}

// Distance returns the distance in meters at (u, v).
// Out-of-range pixels are an error; missing or non-finite readings come
// back as 0 so callers can keep the degenerate sample.
func (d *DepthMap) Distance(u, v int) (float64, error) {
	if d == nil {
		return 0, ErrNoDepth
	}
	if !d.In(u, v) {
		return 0, fmt.Errorf("pixel (%d,%d) outside %dx%d depth map", u, v, d.Width, d.Height)
	}
	z := float64(d.Data[v*d.Width+u])
	if math.IsNaN(z) || math.IsInf(z, 0) || z < 0 {
		return 0, nil
	}
	return z, nil
}

// Source produces synchronized frames. Next blocks until a frame is
// available, the context ends, or the stream fails.
type Source interface {
	// Next returns the next frame. The caller owns it and must Close it.
	// Returns ErrEndOfStream when the stream is exhausted.
	Next(ctx context.Context) (*Frame, error)

	// Intrinsics returns per-stream intrinsics when the source carries a
	// depth stream. ok is false for color-only sources.
	Intrinsics() (intr StreamIntrinsics, ok bool)

	// Close releases the device.
	Close() error
}
