package pipeline

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var (
	circleColor = color.RGBA{0, 255, 0, 0}
	faceColor   = color.RGBA{255, 0, 0, 0}
	recColor    = color.RGBA{255, 0, 0, 0}
)

const (
	overlayThickness = 2
	textScale        = 0.5
	lineSpacing      = 20
)

// Render draws the outcome onto img: red face boxes, green circles with
// their X/Y/Z readouts below, and a REC marker while recording. Skipped
// outcomes draw nothing but the marker.
func Render(img *gocv.Mat, o Outcome, recording bool) {
	if img == nil || img.Empty() {
		return
	}

	if o.Status == Annotated {
		for _, box := range o.Faces {
			gocv.Rectangle(img, box, faceColor, overlayThickness)
		}
		for i, c := range o.Circles {
			gocv.Circle(img, c.Center, c.Radius, circleColor, overlayThickness)
			if i >= len(o.Points) {
				continue
			}
			p := o.Points[i].Position
			org := image.Pt(c.Center.X-c.Radius, c.Center.Y+c.Radius)
			for j, line := range []string{
				fmt.Sprintf("X: %.3f m", p.X),
				fmt.Sprintf("Y: %.3f m", p.Y),
				fmt.Sprintf("Z: %.3f m", p.Z),
			} {
				at := image.Pt(org.X, org.Y+(j+1)*lineSpacing)
				gocv.PutText(img, line, at, gocv.FontHersheySimplex, textScale, circleColor, overlayThickness)
			}
		}
	}

	if recording {
		gocv.Circle(img, image.Pt(20, 20), 8, recColor, -1)
		gocv.PutText(img, "REC", image.Pt(34, 26), gocv.FontHersheySimplex, textScale, recColor, overlayThickness)
	}
}
