package frame

import (
	"encoding/json"
	"fmt"
	"os"
)

// DistortionModel names the lens model attached to a stream's intrinsics.
type DistortionModel string

const (
	DistortionNone                DistortionModel = "none"
	DistortionBrownConrady        DistortionModel = "brown_conrady"         // coefficients distort; undo iteratively
	DistortionInverseBrownConrady DistortionModel = "inverse_brown_conrady" // coefficients undistort directly
)

// CameraIntrinsics describes one optical frame. Coeffs are
// [k1, k2, p1, p2, k3].
type CameraIntrinsics struct {
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Fx     float64         `json:"fx"`
	Fy     float64         `json:"fy"`
	Ppx    float64         `json:"ppx"`
	Ppy    float64         `json:"ppy"`
	Model  DistortionModel `json:"model"`
	Coeffs [5]float64      `json:"coeffs"`
}

// Validate checks that the intrinsics can be used for deprojection.
func (c CameraIntrinsics) Validate() error {
	if c.Fx <= 0 || c.Fy <= 0 {
		return fmt.Errorf("focal lengths must be positive, got fx=%v fy=%v", c.Fx, c.Fy)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("resolution must be positive, got %dx%d", c.Width, c.Height)
	}
	switch c.Model {
	case "", DistortionNone, DistortionBrownConrady, DistortionInverseBrownConrady:
	default:
		return fmt.Errorf("unknown distortion model %q", c.Model)
	}
	return nil
}

// Distorted reports whether any coefficient is non-zero under a model that uses them.
func (c CameraIntrinsics) Distorted() bool {
	if c.Model == "" || c.Model == DistortionNone {
		return false
	}
	for _, k := range c.Coeffs {
		if k != 0 {
			return true
		}
	}
	return false
}

// StreamIntrinsics holds the color and depth optical frames of one session.
type StreamIntrinsics struct {
	Color     CameraIntrinsics `json:"color"`
	Depth     CameraIntrinsics `json:"depth"`
	DepthUnit float64          `json:"depth_unit"` // meters per raw depth unit
}

// Validate checks both optical frames.
func (s StreamIntrinsics) Validate() error {
	if err := s.Color.Validate(); err != nil {
		return fmt.Errorf("color: %w", err)
	}
	if err := s.Depth.Validate(); err != nil {
		return fmt.Errorf("depth: %w", err)
	}
	if s.DepthUnit <= 0 {
		return fmt.Errorf("depth_unit must be positive, got %v", s.DepthUnit)
	}
	return nil
}

// LoadStreamIntrinsics reads a JSON intrinsics file.
func LoadStreamIntrinsics(path string) (StreamIntrinsics, error) {
	var s StreamIntrinsics
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read intrinsics: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse intrinsics %s: %w", path, err)
	}
	if s.DepthUnit == 0 {
		s.DepthUnit = DefaultDepthUnit
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid intrinsics %s: %w", path, err)
	}
	return s, nil
}

// DefaultDepthUnit is the z16 depth scale used by common structured-light sensors.
const DefaultDepthUnit = 0.001
