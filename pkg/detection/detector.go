// Package detection finds circles and faces in grayscale frames
package detection

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// Circularity band around the ideal value of 1.0.
const (
	CircularityMin = 0.99
	CircularityMax = 1.01
)

// Circle is one accepted circle candidate, in integer pixels.
type Circle struct {
	Center      image.Point
	Radius      int
	Circularity float64
}

// Diameter returns the circle diameter in pixels.
func (c Circle) Diameter() int {
	return 2 * c.Radius
}

// Bounds returns the axis-aligned box enclosing the circle.
func (c Circle) Bounds() image.Rectangle {
	return image.Rect(c.Center.X-c.Radius, c.Center.Y-c.Radius, c.Center.X+c.Radius, c.Center.Y+c.Radius)
}

// Circularity computes 4π·area/perimeter² from the ideal circle formulas
// for the given radius. It is 1 for every positive radius, so it never
// rejects a non-circular blob; the radius gate in Accept does the work.
func Circularity(radius float64) float64 {
	area := math.Pi * radius * radius
	perimeter := 2 * math.Pi * radius
	return 4 * math.Pi * area / (perimeter * perimeter)
}

// Accept applies the circularity-and-size gate.
func Accept(circularity float64, radius, minRadius int) bool {
	return circularity > CircularityMin && circularity < CircularityMax && radius > minRadius
}

// Params holds the fixed circle detector configuration.
type Params struct {
	BlurKernel   int     // Gaussian kernel size (odd)
	DP           float64 // Inverse accumulator resolution ratio
	MinDist      float64 // Minimum distance between detected centers
	Param1       float64 // Upper Canny threshold
	Param2       float64 // Accumulator threshold
	MinRadius    int     // Hough search lower bound
	MaxRadius    int     // Hough search upper bound
	FilterRadius int     // Accepted circles must have radius strictly above this
}

// DepthParams returns the preset used with the depth-sensor localizer.
func DepthParams() Params {
	return Params{
		BlurKernel:   5,
		DP:           1,
		MinDist:      50,
		Param1:       100,
		Param2:       30,
		MinRadius:    30,
		MaxRadius:    50,
		FilterRadius: 10,
	}
}

// MonocularParams returns the preset used with the similar-triangles localizer.
func MonocularParams() Params {
	return Params{
		BlurKernel:   5,
		DP:           1,
		MinDist:      20,
		Param1:       100,
		Param2:       50,
		MinRadius:    25,
		MaxRadius:    75,
		FilterRadius: 25,
	}
}

// Validate returns a list of problems, or nil if the params are usable.
func (p Params) Validate() []string {
	var errs []string
	if p.BlurKernel < 1 || p.BlurKernel%2 == 0 {
		errs = append(errs, "blur kernel must be a positive odd number")
	}
	if p.DP <= 0 {
		errs = append(errs, "dp must be positive")
	}
	if p.MinDist <= 0 {
		errs = append(errs, "min dist must be positive")
	}
	if p.Param1 <= 0 || p.Param2 <= 0 {
		errs = append(errs, "hough thresholds must be positive")
	}
	if p.MinRadius < 0 || (p.MaxRadius > 0 && p.MaxRadius < p.MinRadius) {
		errs = append(errs, "radius bounds are inverted")
	}
	return errs
}

// CircleFinder finds circles in a grayscale image.
type CircleFinder interface {
	Detect(gray gocv.Mat) ([]Circle, error)
}

// FaceAnnotator finds face bounding boxes in a grayscale image. Results
// are for display only.
type FaceAnnotator interface {
	Annotate(gray gocv.Mat) ([]image.Rectangle, error)
	Close() error
}
