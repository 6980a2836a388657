package detection

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestNewHaar_InvalidPath(t *testing.T) {
	cfg := DefaultHaarConfig()
	cfg.CascadePath = "/nonexistent/cascade.xml"

	_, err := NewHaar(cfg)
	assert.Error(t, err)
}

func TestHaar_BlankImage(t *testing.T) {
	path := findModel("haarcascade_frontalface_default.xml")
	if path == "" {
		t.Skip("Haar cascade not found, skipping test")
	}

	cfg := DefaultHaarConfig()
	cfg.CascadePath = path
	d, err := NewHaar(cfg)
	require.NoError(t, err)
	defer d.Close()

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(90, 0, 0, 0), 240, 320, gocv.MatTypeCV8UC1)
	defer img.Close()

	boxes, err := d.Annotate(img)
	require.NoError(t, err)
	assert.Empty(t, boxes)

	empty := gocv.NewMat()
	defer empty.Close()
	_, err = d.Annotate(empty)
	assert.Error(t, err)
}

func TestNewYuNet_InvalidPath(t *testing.T) {
	cfg := DefaultYuNetConfig()
	cfg.ModelPath = "/nonexistent/path/model.onnx"

	_, err := NewYuNet(cfg)
	assert.Error(t, err)
}

func TestYuNet_GrayImage(t *testing.T) {
	path := findModel("face_detection_yunet.onnx")
	if path == "" {
		t.Skip("YuNet model not found, skipping test")
	}

	cfg := DefaultYuNetConfig()
	cfg.ModelPath = path
	d, err := NewYuNet(cfg)
	require.NoError(t, err)
	defer d.Close()

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(90, 0, 0, 0), 240, 320, gocv.MatTypeCV8UC1)
	defer img.Close()

	boxes, err := d.Annotate(img)
	require.NoError(t, err)
	assert.Empty(t, boxes, "solid image has no faces")
}

func TestDefaultConfigs(t *testing.T) {
	h := DefaultHaarConfig()
	assert.Equal(t, 1.3, h.ScaleFactor)
	assert.Equal(t, 5, h.MinNeighbors)
	assert.Equal(t, 30, h.MinSize)

	y := DefaultYuNetConfig()
	assert.NotEmpty(t, y.ModelPath)
	assert.Greater(t, y.ConfidenceThresh, 0.0)
	assert.LessOrEqual(t, y.ConfidenceThresh, 1.0)
}

// findModel walks up from the test directory looking for models/<name>.
func findModel(name string) string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := cwd; dir != "/"; dir = filepath.Dir(dir) {
		p := filepath.Join(dir, "models", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
