// Package recording owns the operator-toggled recording session: the
// open video sink and the in-memory log of localized points.
package recording

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-spotter/pkg/localize"
	"gocv.io/x/gocv"
)

// State is the session state.
type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrNotRecording is returned by operations that need an active session.
var ErrNotRecording = errors.New("not recording")

// Config fixes where and how sessions are persisted.
type Config struct {
	OutputDir  string
	VideoFile  string
	TableFile  string
	Video      VideoSpec
	Timestamps bool // append _20060102_150405 to output names per session
}

// DefaultConfig returns the fixed output paths.
func DefaultConfig() Config {
	return Config{
		OutputDir: ".",
		VideoFile: "output.avi",
		TableFile: "xyz_coordinates.xlsx",
		Video:     DefaultVideoSpec(),
	}
}

// Report describes a session that just ended.
type Report struct {
	Summary   Summary
	VideoPath string
	TablePath string
}

// Session is the Idle/Recording state machine. It is not safe for
// concurrent use; the pipeline loop is its only caller.
type Session struct {
	cfg       Config
	openVideo VideoOpener
	table     TableWriter
	logger    *slog.Logger
	now       func() time.Time

	state     State
	id        string
	started   time.Time
	videoPath string
	tablePath string
	sink      VideoSink
	points    []localize.Point
	frames    int
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the wall clock (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// NewSession creates an idle session.
func NewSession(cfg Config, open VideoOpener, table TableWriter, opts ...Option) *Session {
	s := &Session{
		cfg:       cfg,
		openVideo: open,
		table:     table,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Recording reports whether a session is active.
func (s *Session) Recording() bool { return s.state == Recording }

// ID returns the active session id, or "" while idle.
func (s *Session) ID() string { return s.id }

// Len returns the number of points logged in the active session.
func (s *Session) Len() int { return len(s.points) }

// Frames returns the number of frames written in the active session.
func (s *Session) Frames() int { return s.frames }

// Toggle flips the state. Starting returns a nil report; stopping returns
// the report of the session that ended.
func (s *Session) Toggle() (*Report, error) {
	if s.state == Recording {
		r, err := s.Stop()
		return &r, err
	}
	return nil, s.Start()
}

// Start opens a fresh video sink and empties the log. On failure the
// session stays idle.
func (s *Session) Start() error {
	if s.state == Recording {
		return nil
	}

	now := s.now()
	videoPath, tablePath := s.paths(now)
	sink, err := s.openVideo(videoPath, s.cfg.Video)
	if err != nil {
		return fmt.Errorf("start recording: %w", err)
	}

	s.state = Recording
	s.id = uuid.New().String()
	s.started = now
	s.videoPath, s.tablePath = videoPath, tablePath
	s.sink = sink
	s.points = s.points[:0]
	s.frames = 0

	s.logger.Info("recording started", "session", s.id, "video", videoPath)
	return nil
}

// Stop closes the video sink, writes the log to the table in insertion
// order, and clears the log. The session is idle afterwards even if
// closing or writing failed.
func (s *Session) Stop() (Report, error) {
	if s.state != Recording {
		return Report{}, ErrNotRecording
	}

	summary := Summarize(s.points)
	summary.SessionID = s.id
	report := Report{Summary: summary, VideoPath: s.videoPath, TablePath: s.tablePath}

	var errs []error
	if err := s.sink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close video: %w", err))
	}
	if err := s.table.WriteTable(s.tablePath, s.points, summary); err != nil {
		errs = append(errs, fmt.Errorf("write table: %w", err))
	}

	s.logger.Info("recording stopped",
		"session", s.id,
		"rows", summary.Count,
		"frames", s.frames,
		"table", s.tablePath,
		"z_mean", summary.Z.Mean,
	)

	s.reset()
	return report, errors.Join(errs...)
}

// Append adds points to the log in the order given. While idle the points
// are dropped.
func (s *Session) Append(points ...localize.Point) error {
	if s.state != Recording {
		return ErrNotRecording
	}
	s.points = append(s.points, points...)
	return nil
}

// WriteFrame mirrors a frame to the video sink. No-op while idle.
func (s *Session) WriteFrame(img gocv.Mat) error {
	if s.state != Recording {
		return nil
	}
	if err := s.sink.Write(img); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	s.frames++
	return nil
}

// Points returns a copy of the active log.
func (s *Session) Points() []localize.Point {
	out := make([]localize.Point, len(s.points))
	copy(out, s.points)
	return out
}

// Close ends an active session at shutdown: the sink is always closed
// and, when flush is set, the log is persisted too.
func (s *Session) Close(flush bool) error {
	if s.state != Recording {
		return nil
	}
	if flush {
		_, err := s.Stop()
		return err
	}

	err := s.sink.Close()
	s.logger.Warn("recording closed without flushing", "session", s.id, "dropped_rows", len(s.points))
	s.reset()
	return err
}

func (s *Session) reset() {
	s.state = Idle
	s.id = ""
	s.sink = nil
	s.points = nil
	s.frames = 0
}

func (s *Session) paths(now time.Time) (video, table string) {
	video, table = s.cfg.VideoFile, s.cfg.TableFile
	if s.cfg.Timestamps {
		suffix := now.Format("_20060102_150405")
		video = withSuffix(video, suffix)
		table = withSuffix(table, suffix)
	}
	return filepath.Join(s.cfg.OutputDir, video), filepath.Join(s.cfg.OutputDir, table)
}

func withSuffix(name, suffix string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + suffix + ext
}
