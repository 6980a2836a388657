// Package pipeline drives the per-frame acquire, detect, localize, record
// and render sequence on a single goroutine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/teslashibe/go-spotter/pkg/detection"
	"github.com/teslashibe/go-spotter/pkg/frame"
	"github.com/teslashibe/go-spotter/pkg/localize"
	"github.com/teslashibe/go-spotter/pkg/recording"
	"gocv.io/x/gocv"
)

// Status tags a per-frame outcome.
type Status int

const (
	Annotated Status = iota
	Skipped
)

func (s Status) String() string {
	if s == Skipped {
		return "skipped"
	}
	return "annotated"
}

// Outcome is the result of processing one frame. Points[i] localizes
// Circles[i]. A Skipped outcome carries only the Reason.
type Outcome struct {
	Seq       uint64
	Timestamp time.Time
	Status    Status
	Circles   []detection.Circle
	Faces     []image.Rectangle
	Points    []localize.Point
	Reason    error
}

func skipped(f *frame.Frame, reason error) Outcome {
	return Outcome{Seq: f.Seq, Timestamp: f.Timestamp, Status: Skipped, Reason: reason}
}

// Snapshot is a point-in-time view of the loop for status reporting.
type Snapshot struct {
	Strategy  string `json:"strategy"`
	Recording bool   `json:"recording"`
	SessionID string `json:"session_id,omitempty"`
	Rows      int    `json:"rows"`
	Frames    uint64 `json:"frames"`
	Annotated uint64 `json:"annotated"`
	Skipped   uint64 `json:"skipped"`
}

// Observer sees every rendered frame on the loop goroutine. img is only
// valid for the duration of the call.
type Observer func(img gocv.Mat, o Outcome, snap Snapshot)

// Loop is the pipeline driver. All session mutation happens inside Step.
type Loop struct {
	source    frame.Source
	circles   detection.CircleFinder
	faces     detection.FaceAnnotator
	localizer localize.Localizer
	session   *recording.Session

	commands CommandSource
	display  Display
	observer Observer
	logger   *slog.Logger

	flushOnExit bool

	frames    uint64
	annotated uint64
	skipped   uint64
}

// Option configures a Loop.
type Option func(*Loop)

// WithFaces enables the face overlay.
func WithFaces(f detection.FaceAnnotator) Option {
	return func(l *Loop) { l.faces = f }
}

// WithCommands sets the operator command source.
func WithCommands(c CommandSource) Option {
	return func(l *Loop) { l.commands = c }
}

// WithDisplay sets the preview display.
func WithDisplay(d Display) Option {
	return func(l *Loop) { l.display = d }
}

// WithObserver registers a per-frame observer.
func WithObserver(o Observer) Option {
	return func(l *Loop) { l.observer = o }
}

// WithLogger sets the loop logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// WithFlushOnExit persists an active session's log when the loop ends.
func WithFlushOnExit(flush bool) Option {
	return func(l *Loop) { l.flushOnExit = flush }
}

// New creates a loop over the given collaborators.
func New(src frame.Source, circles detection.CircleFinder, loc localize.Localizer, session *recording.Session, opts ...Option) *Loop {
	l := &Loop{
		source:      src,
		circles:     circles,
		localizer:   loc,
		session:     session,
		logger:      slog.Default(),
		flushOnExit: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run steps until quit, context cancellation, or an acquisition failure.
// End of stream is a normal exit. On return any active session is closed.
func (l *Loop) Run(ctx context.Context) (err error) {
	defer func() {
		if cerr := l.session.Close(l.flushOnExit); cerr != nil {
			l.logger.Error("closing recording session", "error", cerr)
			err = errors.Join(err, cerr)
		}
	}()

	l.logger.Info("pipeline started", "strategy", l.localizer.Name())
	for {
		if ctx.Err() != nil {
			l.logger.Info("pipeline cancelled", "frames", l.frames)
			return nil
		}

		_, cmd, err := l.Step(ctx)
		switch {
		case errors.Is(err, frame.ErrEndOfStream):
			l.logger.Info("end of stream", "frames", l.frames)
			return nil
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil:
			return fmt.Errorf("acquire frame: %w", err)
		}

		if cmd == Quit {
			l.logger.Info("quit requested", "frames", l.frames)
			return nil
		}
	}
}

// Step runs one iteration. The returned error is always an acquisition
// failure; per-frame faults come back as a Skipped outcome.
func (l *Loop) Step(ctx context.Context) (Outcome, Command, error) {
	f, err := l.source.Next(ctx)
	if err != nil {
		return Outcome{}, None, err
	}
	defer f.Close()
	l.frames++

	out := l.process(f)
	if out.Status == Skipped {
		l.skipped++
		l.logger.Warn("frame skipped", "frame", out.Seq, "reason", out.Reason)
	} else {
		l.annotated++
		l.record(f, out)
	}

	if !f.Color.Empty() {
		Render(&f.Color, out, l.session.Recording())
		if out.Status == Annotated {
			if err := l.session.WriteFrame(f.Color); err != nil {
				l.logger.Warn("video write failed", "frame", out.Seq, "error", err)
			}
		}
		if l.display != nil {
			l.display.Show(f.Color)
		}
	}

	if l.observer != nil {
		l.observer(f.Color, out, l.Snapshot())
	}

	cmd := None
	if l.commands != nil {
		cmd = l.commands.Poll()
	}
	if cmd == ToggleRecording {
		l.toggle()
	}
	return out, cmd, nil
}

// Snapshot reports counters and session state.
func (l *Loop) Snapshot() Snapshot {
	return Snapshot{
		Strategy:  l.localizer.Name(),
		Recording: l.session.Recording(),
		SessionID: l.session.ID(),
		Rows:      l.session.Len(),
		Frames:    l.frames,
		Annotated: l.annotated,
		Skipped:   l.skipped,
	}
}

// process runs detection and localization, turning any fault, including a
// panic from the vision bindings, into a Skipped outcome.
func (l *Loop) process(f *frame.Frame) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = skipped(f, fmt.Errorf("panic: %v", r))
		}
	}()

	gray, err := f.Gray()
	defer gray.Close()
	if err != nil {
		return skipped(f, err)
	}

	circles, err := l.circles.Detect(gray)
	if err != nil {
		return skipped(f, fmt.Errorf("detect circles: %w", err))
	}

	var faces []image.Rectangle
	if l.faces != nil {
		// Faces are overlay only; a failure here must not cost the frame.
		if faces, err = l.faces.Annotate(gray); err != nil {
			l.logger.Debug("face annotation failed", "frame", f.Seq, "error", err)
			faces = nil
		}
	}

	points := make([]localize.Point, 0, len(circles))
	for _, c := range circles {
		p, err := l.localizer.Localize(c, f)
		if err != nil {
			return skipped(f, fmt.Errorf("localize circle at %v: %w", c.Center, err))
		}
		points = append(points, p)
	}

	return Outcome{
		Seq:       f.Seq,
		Timestamp: f.Timestamp,
		Status:    Annotated,
		Circles:   circles,
		Faces:     faces,
		Points:    points,
	}
}

func (l *Loop) record(f *frame.Frame, out Outcome) {
	if !l.session.Recording() || len(out.Points) == 0 {
		return
	}
	if err := l.session.Append(out.Points...); err != nil {
		l.logger.Warn("append points failed", "frame", f.Seq, "error", err)
	}
}

func (l *Loop) toggle() {
	report, err := l.session.Toggle()
	if err != nil {
		l.logger.Error("toggle recording failed", "error", err)
	}
	if report != nil {
		l.logger.Info("session saved",
			"session", report.Summary.SessionID,
			"rows", report.Summary.Count,
			"table", report.TablePath,
			"video", report.VideoPath,
		)
	}
}
