// Package spotter wires the frame source, detectors, localizer, recording
// session, preview window and dashboard into one application.
package spotter

import (
	"os"
	"strconv"

	"github.com/teslashibe/go-spotter/internal/config"
	"github.com/teslashibe/go-spotter/pkg/camera"
	"github.com/teslashibe/go-spotter/pkg/detection"
	"github.com/teslashibe/go-spotter/pkg/localize"
	"github.com/teslashibe/go-spotter/pkg/recording"
)

// Face annotator backends.
const (
	FaceNone  = "none"
	FaceHaar  = "haar"
	FaceYuNet = "yunet"
)

// Default configuration values.
const (
	DefaultSource   = "0"
	DefaultLogLevel = "info"
	WindowTitle     = "Spotter"
)

// Config holds all configuration for the spotter application.
// Flag parsing is done in cmd/spotter/main.go; this struct is data only.
type Config struct {
	// Debug enables per-frame detector traces.
	Debug bool

	// Logging.
	LogLevel string
	LogFile  string // empty disables the rotated log file

	// Source is a camera index or a video file. Ignored when DepthDir is set.
	Source string

	// DepthDir is a recorded RGB-D directory; it selects depth deprojection.
	DepthDir string

	// Mode is the requested stream mode.
	Mode camera.Mode

	// Recording outputs.
	OutputDir   string
	Timestamps  bool // per-session output names
	FlushOnExit bool // write an active session's table on shutdown

	// Face overlay backend and its model files.
	Face        string
	HaarCascade string
	YuNetModel  string

	// Monocular reference target.
	ReferenceSize float64
	FocalLength   float64
	Pinhole       bool // use (u - cx)·z/f for x and y

	// Headless disables the preview window.
	Headless bool

	// WebPort enables the dashboard when not empty.
	WebPort string
}

// DefaultConfig returns the fixed configuration of a standard session.
func DefaultConfig() Config {
	return Config{
		LogLevel:      DefaultLogLevel,
		Source:        DefaultSource,
		Mode:          camera.DefaultMode(),
		OutputDir:     recording.DefaultConfig().OutputDir,
		FlushOnExit:   true,
		Face:          FaceHaar,
		HaarCascade:   detection.DefaultHaarConfig().CascadePath,
		YuNetModel:    detection.DefaultYuNetConfig().ModelPath,
		ReferenceSize: localize.DefaultReferenceSize,
		FocalLength:   localize.DefaultFocalLength,
	}
}

// LoadEnvConfig applies environment overrides.
// Call this before flag parsing so explicit flags win.
func (c *Config) LoadEnvConfig() {
	c.Source = config.String(config.EnvSource, c.Source)
	c.DepthDir = config.String(config.EnvDepthDir, c.DepthDir)
	c.OutputDir = config.String(config.EnvOutputDir, c.OutputDir)
	c.WebPort = config.String(config.EnvWebPort, c.WebPort)
	c.LogLevel = config.String(config.EnvLogLevel, c.LogLevel)
	c.LogFile = config.String(config.EnvLogFile, c.LogFile)
}

// Validate checks that the configuration can be used.
func (c *Config) Validate() error {
	if c.Source == "" && c.DepthDir == "" {
		return &ConfigError{Field: "Source", Message: "a camera source or a depth directory is required"}
	}
	if c.DepthDir != "" {
		if st, err := os.Stat(c.DepthDir); err != nil || !st.IsDir() {
			return &ConfigError{Field: "DepthDir", Message: "depth directory " + c.DepthDir + " does not exist"}
		}
	}
	if errs := c.Mode.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "Mode", Message: "invalid stream mode: " + errs[0]}
	}
	if c.OutputDir == "" {
		return &ConfigError{Field: "OutputDir", Message: "output directory is required"}
	}
	switch c.Face {
	case FaceNone, FaceHaar, FaceYuNet:
	default:
		return &ConfigError{Field: "Face", Message: "face backend must be none, haar, or yunet"}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ConfigError{Field: "LogLevel", Message: "log level must be debug, info, warn, or error"}
	}
	if c.ReferenceSize <= 0 || c.FocalLength <= 0 {
		return &ConfigError{Field: "ReferenceSize", Message: "reference size and focal length must be positive"}
	}
	if c.WebPort != "" {
		if p, err := strconv.Atoi(c.WebPort); err != nil || p < 1 || p > 65535 {
			return &ConfigError{Field: "WebPort", Message: "web port must be between 1 and 65535"}
		}
	}
	return nil
}

// Monocular returns the similar-triangles localizer configuration.
func (c *Config) Monocular() localize.Monocular {
	m := localize.DefaultMonocular()
	m.ReferenceSize = c.ReferenceSize
	m.FocalLength = c.FocalLength
	if c.Pinhole {
		m.Lateral = localize.LateralPinhole
	}
	return m
}

// Recording returns the session configuration.
func (c *Config) Recording() recording.Config {
	rc := recording.DefaultConfig()
	rc.OutputDir = c.OutputDir
	rc.Timestamps = c.Timestamps
	rc.Video.Width = c.Mode.Width
	rc.Video.Height = c.Mode.Height
	rc.Video.FPS = float64(c.Mode.FPS)
	return rc
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
