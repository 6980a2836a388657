package detection

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// HaarConfig holds cascade classifier configuration.
type HaarConfig struct {
	CascadePath  string  // Path to the cascade XML
	ScaleFactor  float64 // Image pyramid step
	MinNeighbors int     // Overlapping hits needed to keep a box
	MinSize      int     // Smallest face side in pixels
}

// DefaultHaarConfig returns the frontal-face defaults.
func DefaultHaarConfig() HaarConfig {
	return HaarConfig{
		CascadePath:  "models/haarcascade_frontalface_default.xml",
		ScaleFactor:  1.3,
		MinNeighbors: 5,
		MinSize:      30,
	}
}

// HaarDetector finds faces with an OpenCV cascade classifier.
type HaarDetector struct {
	classifier gocv.CascadeClassifier
	config     HaarConfig
	mu         sync.Mutex // Protects the classifier
}

// NewHaar loads the cascade once; per-frame calls reuse it.
func NewHaar(cfg HaarConfig) (*HaarDetector, error) {
	if _, err := os.Stat(cfg.CascadePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("cascade file not found: %s", cfg.CascadePath)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.CascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade from %s", cfg.CascadePath)
	}

	return &HaarDetector{
		classifier: classifier,
		config:     cfg,
	}, nil
}

// Annotate returns face boxes in pixel coordinates.
func (d *HaarDetector) Annotate(gray gocv.Mat) ([]image.Rectangle, error) {
	if gray.Empty() {
		return nil, fmt.Errorf("annotate faces: empty image")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	minSize := image.Pt(d.config.MinSize, d.config.MinSize)
	return d.classifier.DetectMultiScaleWithParams(gray,
		d.config.ScaleFactor, d.config.MinNeighbors, 0,
		minSize, image.Pt(0, 0)), nil
}

// Close releases the classifier.
func (d *HaarDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}
