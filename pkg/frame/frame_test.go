package frame

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestDepthMap_Distance(t *testing.T) {
	d := NewDepthMap(4, 3)
	d.Set(1, 2, 1.25)
	d.Set(2, 0, float32(math.NaN()))
	d.Set(3, 0, -1)

	tests := []struct {
		name    string
		u, v    int
		want    float64
		wantErr bool
	}{
		{name: "valid sample", u: 1, v: 2, want: 1.25},
		{name: "zero sample kept as zero", u: 0, v: 0, want: 0},
		{name: "NaN becomes zero", u: 2, v: 0, want: 0},
		{name: "negative becomes zero", u: 3, v: 0, want: 0},
		{name: "outside right edge", u: 4, v: 0, wantErr: true},
		{name: "outside top edge", u: 0, v: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Distance(tt.u, tt.v)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestDepthMap_NilIsNoDepth(t *testing.T) {
	var d *DepthMap
	_, err := d.Distance(0, 0)
	assert.ErrorIs(t, err, ErrNoDepth)
}

func TestDepthMapFromUnits(t *testing.T) {
	d, err := DepthMapFromUnits(2, 2, []uint16{0, 1000, 2500, 65535}, 0.001)
	require.NoError(t, err)

	z, err := d.Distance(1, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, z, 1e-6)

	z, err = d.Distance(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, z, 1e-6)

	_, err = DepthMapFromUnits(2, 2, []uint16{1, 2, 3}, 0.001)
	assert.Error(t, err)
}

func TestCameraIntrinsics_Validate(t *testing.T) {
	good := CameraIntrinsics{Width: 848, Height: 480, Fx: 500, Fy: 500, Ppx: 424, Ppy: 240}
	assert.NoError(t, good.Validate())

	bad := good
	bad.Fx = 0
	assert.Error(t, bad.Validate())

	bad = good
	bad.Model = "fisheye"
	assert.Error(t, bad.Validate())

	assert.False(t, good.Distorted())
	good.Model = DistortionBrownConrady
	assert.False(t, good.Distorted())
	good.Coeffs[0] = 0.1
	assert.True(t, good.Distorted())
}

func TestLoadStreamIntrinsics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intrinsics.json")
	body := `{
		"color": {"width": 848, "height": 480, "fx": 610, "fy": 610, "ppx": 424, "ppy": 240},
		"depth": {"width": 848, "height": 480, "fx": 420, "fy": 420, "ppx": 421, "ppy": 238, "model": "brown_conrady"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	s, err := LoadStreamIntrinsics(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultDepthUnit, s.DepthUnit)
	assert.Equal(t, 420.0, s.Depth.Fx)
	assert.Equal(t, DistortionBrownConrady, s.Depth.Model)

	require.NoError(t, os.WriteFile(path, []byte(`{"color": {}, "depth": {}}`), 0o644))
	_, err = LoadStreamIntrinsics(path)
	assert.Error(t, err)
}

func TestFrame_Gray(t *testing.T) {
	color := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	f := &Frame{Seq: 1, Color: color}
	defer f.Close()

	gray, err := f.Gray()
	require.NoError(t, err)
	defer gray.Close()

	assert.Equal(t, 1, gray.Channels())
	assert.Equal(t, 48, gray.Rows())
	assert.Equal(t, 64, gray.Cols())

	empty := &Frame{Color: gocv.NewMat()}
	defer empty.Close()
	g, err := empty.Gray()
	g.Close()
	assert.ErrorIs(t, err, ErrEmptyFrame)
}
