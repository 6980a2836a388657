package recording

import (
	"fmt"
	"image"

	"github.com/teslashibe/go-spotter/pkg/localize"
	"gocv.io/x/gocv"
)

// VideoSink receives annotated frames while a session is active.
type VideoSink interface {
	Write(img gocv.Mat) error
	Close() error
}

// VideoOpener opens a fresh sink at path for one session.
type VideoOpener func(path string, spec VideoSpec) (VideoSink, error)

// TableWriter persists a finished session's point log.
type TableWriter interface {
	WriteTable(path string, points []localize.Point, summary Summary) error
}

// VideoSpec fixes the encoding of the recorded video.
type VideoSpec struct {
	Codec  string  // FourCC
	FPS    float64
	Width  int
	Height int
}

// DefaultVideoSpec matches the default color stream.
func DefaultVideoSpec() VideoSpec {
	return VideoSpec{
		Codec:  "XVID",
		FPS:    60,
		Width:  848,
		Height: 480,
	}
}

// VideoWriter is a VideoSink backed by OpenCV's VideoWriter.
type VideoWriter struct {
	w    *gocv.VideoWriter
	spec VideoSpec
}

// OpenVideoWriter is the production VideoOpener.
func OpenVideoWriter(path string, spec VideoSpec) (VideoSink, error) {
	w, err := gocv.VideoWriterFile(path, spec.Codec, spec.FPS, spec.Width, spec.Height, true)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", path, err)
	}
	if !w.IsOpened() {
		w.Close()
		return nil, fmt.Errorf("open video %s: writer not opened (codec %s)", path, spec.Codec)
	}
	return &VideoWriter{w: w, spec: spec}, nil
}

// Write appends a frame. Frames with a different size than the session
// spec are resized so the container stays valid.
func (v *VideoWriter) Write(img gocv.Mat) error {
	if img.Empty() {
		return fmt.Errorf("write video: empty frame")
	}
	if img.Cols() == v.spec.Width && img.Rows() == v.spec.Height {
		return v.w.Write(img)
	}
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Pt(v.spec.Width, v.spec.Height), 0, 0, gocv.InterpolationLinear)
	return v.w.Write(resized)
}

// Close finalizes the container.
func (v *VideoWriter) Close() error {
	return v.w.Close()
}
