package detection

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// syntheticDisc draws a filled white disc on a black grayscale canvas.
func syntheticDisc(width, height int, center image.Point, radius int) gocv.Mat {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC1)
	gocv.Circle(&img, center, radius, color.RGBA{255, 255, 255, 0}, -1)
	return img
}

func TestHoughDetector_FindsDisc(t *testing.T) {
	d, err := NewHoughDetector(DepthParams())
	require.NoError(t, err)

	img := syntheticDisc(848, 480, image.Pt(300, 240), 40)
	defer img.Close()

	circles, err := d.Detect(img)
	require.NoError(t, err)
	require.NotEmpty(t, circles)

	c := circles[0]
	assert.InDelta(t, 300, c.Center.X, 4)
	assert.InDelta(t, 240, c.Center.Y, 4)
	assert.InDelta(t, 40, c.Radius, 4)
	assert.Greater(t, c.Radius, DepthParams().FilterRadius)
}

func TestHoughDetector_BlankImage(t *testing.T) {
	d, err := NewHoughDetector(DepthParams())
	require.NoError(t, err)

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 480, 848, gocv.MatTypeCV8UC1)
	defer img.Close()

	circles, err := d.Detect(img)
	require.NoError(t, err)
	assert.Empty(t, circles)
}

func TestHoughDetector_RejectsBadInput(t *testing.T) {
	d, err := NewHoughDetector(MonocularParams())
	require.NoError(t, err)

	empty := gocv.NewMat()
	defer empty.Close()
	_, err = d.Detect(empty)
	assert.Error(t, err)

	bgr := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer bgr.Close()
	_, err = d.Detect(bgr)
	assert.ErrorIs(t, err, ErrNotGray)
}
