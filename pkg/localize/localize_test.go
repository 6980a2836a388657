package localize

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-spotter/pkg/detection"
	"github.com/teslashibe/go-spotter/pkg/frame"
	"gocv.io/x/gocv"
)

func circle(u, v, r int) detection.Circle {
	return detection.Circle{Center: image.Pt(u, v), Radius: r, Circularity: detection.Circularity(float64(r))}
}

func TestMonocular_Depth(t *testing.T) {
	m := Monocular{ReferenceSize: 0.1, FocalLength: 1000}

	tests := []struct {
		name   string
		radius int
		wantZ  float64
	}{
		{name: "diameter 100", radius: 50, wantZ: 1.0},
		{name: "diameter 50", radius: 25, wantZ: 2.0},
		{name: "diameter 200", radius: 100, wantZ: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := m.Localize(circle(0, 0, tt.radius), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantZ, p.Position.Z)
		})
	}
}

func TestMonocular_ImageScaleLateral(t *testing.T) {
	m := DefaultMonocular()
	ts := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	f := &frame.Frame{Timestamp: ts}

	p, err := m.Localize(circle(400, 200, 50), f)
	require.NoError(t, err)

	// x = u·H/d, y = v·H/d with d = 100
	assert.InDelta(t, 0.4, p.Position.X, 1e-12)
	assert.InDelta(t, 0.2, p.Position.Y, 1e-12)
	assert.Equal(t, 400, p.U)
	assert.Equal(t, 200, p.V)
	assert.Equal(t, ts, p.Timestamp)
}

func TestMonocular_PinholeLateral(t *testing.T) {
	m := DefaultMonocular()
	m.Lateral = LateralPinhole

	color := gocv.NewMatWithSize(480, 848, gocv.MatTypeCV8UC3)
	f := &frame.Frame{Color: color}
	defer f.Close()

	p, err := m.Localize(circle(424, 240, 50), f)
	require.NoError(t, err)
	assert.InDelta(t, 0, p.Position.X, 1e-12)
	assert.InDelta(t, 0, p.Position.Y, 1e-12)
	assert.InDelta(t, 1.0, p.Position.Z, 1e-12)

	p, err = m.Localize(circle(524, 240, 50), f)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, p.Position.X, 1e-12)

	_, err = m.Localize(circle(0, 0, 50), nil)
	assert.ErrorIs(t, err, frame.ErrEmptyFrame)
}

func TestMonocular_ZeroRadius(t *testing.T) {
	m := DefaultMonocular()
	_, err := m.Localize(circle(10, 10, 0), nil)
	assert.Error(t, err)
}

func TestMonocular_Validate(t *testing.T) {
	assert.NoError(t, DefaultMonocular().Validate())
	assert.Error(t, Monocular{ReferenceSize: 0, FocalLength: 1000}.Validate())
	assert.Error(t, Monocular{ReferenceSize: 0.1, FocalLength: -1}.Validate())
}

func depthIntrinsics() frame.CameraIntrinsics {
	return frame.CameraIntrinsics{Width: 848, Height: 848, Fx: 500, Fy: 500, Ppx: 424, Ppy: 424}
}

func depthFrame(u, v int, z float32) *frame.Frame {
	d := frame.NewDepthMap(848, 848)
	d.Set(u, v, z)
	return &frame.Frame{Depth: d, Timestamp: time.Now()}
}

func TestDeprojector_PrincipalPointIsOnAxis(t *testing.T) {
	d, err := NewDeprojector(depthIntrinsics())
	require.NoError(t, err)

	for _, z := range []float32{0.3, 1, 2.75, 9} {
		p, err := d.Localize(circle(424, 424, 40), depthFrame(424, 424, z))
		require.NoError(t, err)
		assert.Equal(t, 0.0, p.Position.X)
		assert.Equal(t, 0.0, p.Position.Y)
		assert.InDelta(t, float64(z), p.Position.Z, 1e-6)
	}
}

func TestDeprojector_OffAxis(t *testing.T) {
	d, err := NewDeprojector(depthIntrinsics())
	require.NoError(t, err)

	p, err := d.Localize(circle(524, 324, 40), depthFrame(524, 324, 2))
	require.NoError(t, err)

	// (524-424)·2/500 = 0.4, (324-424)·2/500 = -0.4
	assert.InDelta(t, 0.4, p.Position.X, 1e-6)
	assert.InDelta(t, -0.4, p.Position.Y, 1e-6)
	assert.InDelta(t, 2.0, p.Position.Z, 1e-6)
}

func TestDeprojector_ZeroDepthIsKept(t *testing.T) {
	d, err := NewDeprojector(depthIntrinsics())
	require.NoError(t, err)

	p, err := d.Localize(circle(600, 100, 40), depthFrame(0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 0.0, p.Position.Z)
	assert.Equal(t, 0.0, p.Position.X)
	assert.Equal(t, 600, p.U)
}

func TestDeprojector_Errors(t *testing.T) {
	d, err := NewDeprojector(depthIntrinsics())
	require.NoError(t, err)

	_, err = d.Localize(circle(10, 10, 40), &frame.Frame{})
	assert.ErrorIs(t, err, frame.ErrNoDepth)

	_, err = d.Localize(circle(900, 10, 40), depthFrame(0, 0, 1))
	assert.Error(t, err)

	_, err = NewDeprojector(frame.CameraIntrinsics{})
	assert.Error(t, err)
}

func TestUndistortBrownConrady_RoundTrip(t *testing.T) {
	k := [5]float64{0.08, -0.02, 0.001, -0.0015, 0.003}

	for _, pt := range [][2]float64{{0, 0}, {0.1, -0.05}, {-0.3, 0.2}, {0.25, 0.25}} {
		dx, dy := applyBrownConrady(k, pt[0], pt[1])
		ux, uy := UndistortBrownConrady(k, dx, dy)
		assert.InDelta(t, pt[0], ux, 1e-6, "x for %v", pt)
		assert.InDelta(t, pt[1], uy, 1e-6, "y for %v", pt)
	}
}

func TestDeproject_DistortionModels(t *testing.T) {
	intr := depthIntrinsics()
	intr.Coeffs = [5]float64{0.1, 0, 0, 0, 0}

	plain := Deproject(depthIntrinsics(), 624, 424, 1)

	intr.Model = frame.DistortionInverseBrownConrady
	inv := Deproject(intr, 624, 424, 1)
	assert.Greater(t, inv.X, plain.X, "positive k1 pushes the point outward")

	intr.Model = frame.DistortionBrownConrady
	fwd := Deproject(intr, 624, 424, 1)
	assert.Less(t, fwd.X, plain.X, "undistorting positive k1 pulls the point inward")

	onAxis := Deproject(intr, 424, 424, 3)
	assert.Equal(t, 0.0, onAxis.X)
	assert.Equal(t, 3.0, onAxis.Z)
}

type stubSource struct {
	intr frame.StreamIntrinsics
	ok   bool
}

func (s stubSource) Next(context.Context) (*frame.Frame, error) { return nil, frame.ErrEndOfStream }
func (s stubSource) Intrinsics() (frame.StreamIntrinsics, bool) { return s.intr, s.ok }
func (s stubSource) Close() error                               { return nil }

func TestForSource(t *testing.T) {
	t.Run("color only picks monocular", func(t *testing.T) {
		l, p, err := ForSource(stubSource{}, DefaultMonocular())
		require.NoError(t, err)
		assert.Equal(t, StrategyMonocular, l.Name())
		assert.Equal(t, detection.MonocularParams(), p)
	})

	t.Run("depth intrinsics pick deprojection", func(t *testing.T) {
		src := stubSource{ok: true, intr: frame.StreamIntrinsics{Color: depthIntrinsics(), Depth: depthIntrinsics(), DepthUnit: 0.001}}
		l, p, err := ForSource(src, DefaultMonocular())
		require.NoError(t, err)
		assert.Equal(t, StrategyDepth, l.Name())
		assert.Equal(t, detection.DepthParams(), p)
	})

	t.Run("bad monocular config", func(t *testing.T) {
		_, _, err := ForSource(stubSource{}, Monocular{})
		assert.Error(t, err)
	})

	t.Run("bad depth intrinsics", func(t *testing.T) {
		_, _, err := ForSource(stubSource{ok: true}, DefaultMonocular())
		assert.Error(t, err)
	})
}
