package detection

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/teslashibe/go-spotter/pkg/debug"
	"gocv.io/x/gocv"
)

// ErrNotGray is returned when the detector is handed a multi-channel image.
var ErrNotGray = errors.New("circle detection needs a single-channel image")

// HoughDetector blurs the frame and runs the Hough gradient transform.
type HoughDetector struct {
	params Params
}

// NewHoughDetector creates a circle detector with fixed parameters.
func NewHoughDetector(p Params) (*HoughDetector, error) {
	if errs := p.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid circle params: %v", errs)
	}
	return &HoughDetector{params: p}, nil
}

// Params returns the detector configuration.
func (d *HoughDetector) Params() Params {
	return d.params
}

// Detect returns the circles passing the circularity-and-radius gate.
// No candidates is a valid, empty result.
func (d *HoughDetector) Detect(gray gocv.Mat) ([]Circle, error) {
	if gray.Empty() {
		return nil, fmt.Errorf("detect circles: empty image")
	}
	if gray.Channels() != 1 {
		return nil, ErrNotGray
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	k := d.params.BlurKernel
	gocv.GaussianBlur(gray, &blurred, image.Pt(k, k), 0, 0, gocv.BorderDefault)

	circles := gocv.NewMat()
	defer circles.Close()
	gocv.HoughCirclesWithParams(blurred, &circles, gocv.HoughGradient,
		d.params.DP, d.params.MinDist,
		d.params.Param1, d.params.Param2,
		d.params.MinRadius, d.params.MaxRadius)

	if circles.Empty() || circles.Cols() == 0 {
		return nil, nil
	}

	// Output is 1xN with three float32 values per circle.
	var accepted []Circle
	for i := 0; i < circles.Cols(); i++ {
		c, ok := d.gate(
			float64(circles.GetFloatAt(0, i*3)),
			float64(circles.GetFloatAt(0, i*3+1)),
			float64(circles.GetFloatAt(0, i*3+2)),
		)
		if ok {
			accepted = append(accepted, c)
		}
	}

	if len(accepted) > 0 {
		debug.Log("circles detected", "candidates", circles.Cols(), "accepted", len(accepted))
	}
	return accepted, nil
}

// gate rounds a raw candidate to integer pixels and applies Accept.
func (d *HoughDetector) gate(x, y, r float64) (Circle, bool) {
	c := Circle{
		Center: image.Pt(int(math.Round(x)), int(math.Round(y))),
		Radius: int(math.Round(r)),
	}
	c.Circularity = Circularity(float64(c.Radius))
	return c, Accept(c.Circularity, c.Radius, d.params.FilterRadius)
}
