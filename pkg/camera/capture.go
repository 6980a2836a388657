package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-spotter/pkg/frame"
	"gocv.io/x/gocv"
)

// Capture is a color-only source backed by an OpenCV VideoCapture. The
// device may be a camera index ("0") or a video file path.
type Capture struct {
	device string
	mode   Mode
	logger *slog.Logger

	mu     sync.Mutex
	cap    *gocv.VideoCapture
	seq    uint64
	closed bool
}

// OpenCapture opens the device and requests the given mode. Devices are
// free to ignore the requested size; frames come back at whatever the
// device delivers.
func OpenCapture(device string, mode Mode, logger *slog.Logger) (*Capture, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if errs := mode.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid mode: %v", errs)
	}

	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("open capture %q: %w", device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("open capture %q: device not available", device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(mode.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(mode.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(mode.FPS))

	logger.Info("capture opened",
		"device", device,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight),
		"fps", vc.Get(gocv.VideoCaptureFPS),
	)

	return &Capture{device: device, mode: mode, logger: logger, cap: vc}, nil
}

// Next reads one frame. A failed read is reported as end of stream.
func (c *Capture) Next(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, frame.ErrEndOfStream
	}

	img := gocv.NewMat()
	if ok := c.cap.Read(&img); !ok || img.Empty() {
		img.Close()
		return nil, frame.ErrEndOfStream
	}

	c.seq++
	return &frame.Frame{Seq: c.seq, Timestamp: time.Now(), Color: img}, nil
}

// Intrinsics reports false: a plain capture has no depth stream.
func (c *Capture) Intrinsics() (frame.StreamIntrinsics, bool) {
	return frame.StreamIntrinsics{}, false
}

// Mode returns the requested mode.
func (c *Capture) Mode() Mode { return c.mode }

// Close releases the device. Safe to call more than once.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.cap.Close()
}
