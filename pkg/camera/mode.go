// Package camera provides the frame sources the spotter pipeline reads
// from: a live VideoCapture device or file, a directory of recorded
// color/depth pairs, and an in-memory sequence for tests.
package camera

import "fmt"

// Mode is the stream configuration a source is opened with.
type Mode struct {
	// === Color ===
	Width  int `json:"width"`
	Height int `json:"height"`
	FPS    int `json:"fps"`

	// === Depth ===
	// DepthFPS is the depth stream rate. Zero for color-only modes.
	DepthFPS int `json:"depth_fps"`
}

// Sensor limits accepted by Validate.
const (
	MaxWidth  = 3840
	MaxHeight = 2160
	MaxFPS    = 240
)

// DefaultMode returns the 848x480 color stream at 60 fps with a 90 fps
// depth stream.
func DefaultMode() Mode {
	return Mode{
		Width:    848,
		Height:   480,
		FPS:      60,
		DepthFPS: 90,
	}
}

// Validate checks the mode against the sensor limits.
// Returns a list of problems, or nil if valid.
func (m Mode) Validate() []string {
	var errs []string
	if m.Width < 160 || m.Width > MaxWidth {
		errs = append(errs, fmt.Sprintf("width must be between 160 and %d", MaxWidth))
	}
	if m.Height < 120 || m.Height > MaxHeight {
		errs = append(errs, fmt.Sprintf("height must be between 120 and %d", MaxHeight))
	}
	if m.FPS < 1 || m.FPS > MaxFPS {
		errs = append(errs, fmt.Sprintf("fps must be between 1 and %d", MaxFPS))
	}
	if m.DepthFPS < 0 || m.DepthFPS > MaxFPS {
		errs = append(errs, fmt.Sprintf("depth_fps must be between 0 and %d", MaxFPS))
	}
	return errs
}

// Preset names.
const (
	PresetDefault = "default"
	PresetVGA     = "vga"
	Preset720p    = "720p"
	PresetFast    = "fast"
)

// Presets returns all named modes.
func Presets() map[string]Mode {
	return map[string]Mode{
		PresetDefault: DefaultMode(),
		PresetVGA:     VGAMode(),
		Preset720p:    HD720Mode(),
		PresetFast:    FastMode(),
	}
}

// PresetNames lists the preset names in display order.
func PresetNames() []string {
	return []string{PresetDefault, PresetVGA, Preset720p, PresetFast}
}

// GetPreset returns a preset by name, or nil if not found.
func GetPreset(name string) *Mode {
	if m, ok := Presets()[name]; ok {
		return &m
	}
	return nil
}

// VGAMode is 640x480 at 30 fps for webcams that cannot do 848 wide.
func VGAMode() Mode {
	return Mode{Width: 640, Height: 480, FPS: 30}
}

// HD720Mode is 1280x720 at 30 fps with depth at the same rate.
func HD720Mode() Mode {
	return Mode{Width: 1280, Height: 720, FPS: 30, DepthFPS: 30}
}

// FastMode trades resolution for rate.
func FastMode() Mode {
	return Mode{Width: 424, Height: 240, FPS: 90, DepthFPS: 90}
}
