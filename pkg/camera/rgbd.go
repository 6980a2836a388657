package camera

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/teslashibe/go-spotter/pkg/frame"
	"gocv.io/x/gocv"
)

// File layout of a recorded RGB-D directory.
const (
	IntrinsicsFile = "intrinsics.json"
	ColorPrefix    = "color_"
	DepthPrefix    = "depth_"
)

// RGBDDirectory replays recorded color frames with their aligned 16-bit
// depth images. Pairs are matched by name: color_000123.png goes with
// depth_000123.png. Frames are timestamped at the configured rate from
// the moment the directory is opened.
type RGBDDirectory struct {
	dir    string
	intr   frame.StreamIntrinsics
	pairs  [][2]string
	period time.Duration
	logger *slog.Logger

	mu    sync.Mutex
	next  int
	start time.Time
}

// OpenRGBDDirectory indexes dir. It fails if the intrinsics are missing or
// invalid, if there are no color frames, or if any color frame has no
// depth partner.
func OpenRGBDDirectory(dir string, mode Mode, logger *slog.Logger) (*RGBDDirectory, error) {
	if logger == nil {
		logger = slog.Default()
	}

	intr, err := frame.LoadStreamIntrinsics(filepath.Join(dir, IntrinsicsFile))
	if err != nil {
		return nil, err
	}

	colors, err := filepath.Glob(filepath.Join(dir, ColorPrefix+"*.png"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(colors) == 0 {
		return nil, fmt.Errorf("no %s*.png frames in %s", ColorPrefix, dir)
	}
	sort.Strings(colors)

	pairs := make([][2]string, 0, len(colors))
	for _, c := range colors {
		base := filepath.Base(c)
		d := filepath.Join(dir, DepthPrefix+strings.TrimPrefix(base, ColorPrefix))
		if _, err := os.Stat(d); err != nil {
			return nil, fmt.Errorf("color frame %s has no depth partner: %w", base, err)
		}
		pairs = append(pairs, [2]string{c, d})
	}

	fps := mode.FPS
	if fps <= 0 {
		fps = DefaultMode().FPS
	}

	logger.Info("rgbd directory opened", "dir", dir, "frames", len(pairs), "depth_unit", intr.DepthUnit)
	return &RGBDDirectory{
		dir:    dir,
		intr:   intr,
		pairs:  pairs,
		period: time.Second / time.Duration(fps),
		logger: logger,
		start:  time.Now(),
	}, nil
}

// Len returns the number of frame pairs.
func (r *RGBDDirectory) Len() int { return len(r.pairs) }

// Next loads the next pair. Unreadable files are acquisition failures.
func (r *RGBDDirectory) Next(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next >= len(r.pairs) {
		return nil, frame.ErrEndOfStream
	}
	pair := r.pairs[r.next]
	r.next++
	seq := uint64(r.next)

	color := gocv.IMRead(pair[0], gocv.IMReadColor)
	if color.Empty() {
		color.Close()
		return nil, fmt.Errorf("read %s: empty image", pair[0])
	}

	depth, err := loadDepth(pair[1], r.intr.DepthUnit)
	if err != nil {
		color.Close()
		return nil, err
	}
	if depth.Width != color.Cols() || depth.Height != color.Rows() {
		color.Close()
		return nil, fmt.Errorf("depth %dx%d not aligned with color %dx%d in pair %d",
			depth.Width, depth.Height, color.Cols(), color.Rows(), seq)
	}

	return &frame.Frame{
		Seq:       seq,
		Timestamp: r.start.Add(time.Duration(seq-1) * r.period),
		Color:     color,
		Depth:     depth,
	}, nil
}

// Intrinsics returns the recorded per-stream intrinsics.
func (r *RGBDDirectory) Intrinsics() (frame.StreamIntrinsics, bool) {
	return r.intr, true
}

// Close is a no-op; images are loaded per frame.
func (r *RGBDDirectory) Close() error { return nil }

func loadDepth(path string, unit float64) (*frame.DepthMap, error) {
	img := gocv.IMRead(path, gocv.IMReadUnchanged)
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("read %s: empty image", path)
	}
	if img.Type() != gocv.MatTypeCV16UC1 {
		return nil, fmt.Errorf("read %s: depth must be 16-bit single channel, got type %v", path, img.Type())
	}

	raw, err := img.DataPtrUint16()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	// raw aliases the Mat's memory; DepthMapFromUnits copies it out.
	return frame.DepthMapFromUnits(img.Cols(), img.Rows(), raw, unit)
}
