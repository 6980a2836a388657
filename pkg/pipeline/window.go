package pipeline

import "gocv.io/x/gocv"

// Display shows a frame to the operator.
type Display interface {
	Show(img gocv.Mat)
}

// Window is an OpenCV preview window. It is both the Display and the
// keyboard CommandSource, since keys are only read while pumping the
// window's event loop.
type Window struct {
	w       *gocv.Window
	delayMS int
}

// NewWindow opens a named preview window.
func NewWindow(title string) *Window {
	return &Window{w: gocv.NewWindow(title), delayMS: 1}
}

// Show implements Display.
func (w *Window) Show(img gocv.Mat) {
	if img.Empty() {
		return
	}
	w.w.IMShow(img)
}

// Poll implements CommandSource by waiting one millisecond for a key.
func (w *Window) Poll() Command {
	return ParseKey(w.w.WaitKey(w.delayMS))
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.w.Close()
}
