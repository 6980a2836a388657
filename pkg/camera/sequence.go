package camera

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-spotter/pkg/frame"
	"gocv.io/x/gocv"
)

// Sequence is an in-memory source. Each Next hands out a clone, so the
// sequence keeps ownership of its images until Close.
type Sequence struct {
	mu     sync.Mutex
	colors []gocv.Mat
	depths []*frame.DepthMap
	intr   *frame.StreamIntrinsics
	start  time.Time
	period time.Duration
	next   int
}

// SequenceOption configures a Sequence.
type SequenceOption func(*Sequence)

// WithDepth attaches one depth map per color image and the intrinsics
// that go with them.
func WithDepth(depths []*frame.DepthMap, intr frame.StreamIntrinsics) SequenceOption {
	return func(s *Sequence) {
		s.depths = depths
		s.intr = &intr
	}
}

// WithTiming sets the timestamp of the first frame and the spacing.
func WithTiming(start time.Time, period time.Duration) SequenceOption {
	return func(s *Sequence) {
		s.start = start
		s.period = period
	}
}

// NewSequence takes ownership of colors.
func NewSequence(colors []gocv.Mat, opts ...SequenceOption) *Sequence {
	s := &Sequence{
		colors: colors,
		start:  time.Now(),
		period: time.Second / time.Duration(DefaultMode().FPS),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Next returns a copy of the next image.
func (s *Sequence) Next(ctx context.Context) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.colors) {
		return nil, frame.ErrEndOfStream
	}
	i := s.next
	s.next++

	f := &frame.Frame{
		Seq:       uint64(i + 1),
		Timestamp: s.start.Add(time.Duration(i) * s.period),
		Color:     s.colors[i].Clone(),
	}
	if i < len(s.depths) {
		f.Depth = s.depths[i]
	}
	return f, nil
}

// Intrinsics returns the attached intrinsics, if any.
func (s *Sequence) Intrinsics() (frame.StreamIntrinsics, bool) {
	if s.intr == nil {
		return frame.StreamIntrinsics{}, false
	}
	return *s.intr, true
}

// Close releases the owned images.
func (s *Sequence) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.colors {
		s.colors[i].Close()
	}
	s.colors = nil
	return nil
}
