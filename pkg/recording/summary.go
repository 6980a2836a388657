package recording

import (
	"math"
	"time"

	"github.com/teslashibe/go-spotter/pkg/localize"
	"gonum.org/v1/gonum/stat"
)

// AxisStats is the spread of one coordinate over a session.
type AxisStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Summary describes a finished session.
type Summary struct {
	SessionID string        `json:"session_id"`
	Count     int           `json:"count"`
	Duration  time.Duration `json:"duration"`
	X         AxisStats     `json:"x"`
	Y         AxisStats     `json:"y"`
	Z         AxisStats     `json:"z"`
}

// Summarize computes per-axis mean and sample standard deviation.
// Fewer than two points give a zero spread.
func Summarize(points []localize.Point) Summary {
	s := Summary{Count: len(points)}
	if len(points) == 0 {
		return s
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	zs := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i], zs[i] = p.Position.X, p.Position.Y, p.Position.Z
	}

	s.X = axis(xs)
	s.Y = axis(ys)
	s.Z = axis(zs)
	s.Duration = points[len(points)-1].Timestamp.Sub(points[0].Timestamp)
	return s
}

func axis(v []float64) AxisStats {
	mean, std := stat.MeanStdDev(v, nil)
	if len(v) < 2 || math.IsNaN(std) {
		std = 0
	}
	return AxisStats{Mean: mean, StdDev: std}
}
