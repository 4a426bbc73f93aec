// Package render draws tracking overlays and manages the display window.
package render

import (
	"errors"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/rnarayan/hueshift/internal/track"
)

// Overlay drawing constants: selection markers and the tracked box are
// drawn in the same green, the marker radius matching the click size.
var overlayColor = color.RGBA{G: 255}

const (
	markerRadius  = 4
	lineThickness = 2
)

// DrawMarker draws a selection click marker on the frame.
func DrawMarker(frame *gocv.Mat, pt image.Point) {
	gocv.Circle(frame, pt, markerRadius, overlayColor, lineThickness)
}

// DrawRegion draws the tracked region as a closed polygon through the
// oriented rectangle's corners. Only the frame pixels are modified.
func DrawRegion(frame *gocv.Mat, region track.OrientedRect) {
	corners := region.Corners()
	for i := range corners {
		gocv.Line(frame, corners[i], corners[(i+1)%len(corners)], overlayColor, lineThickness)
	}
}

// Display wraps a named window showing the annotated feed and polling for
// key presses.
type Display struct {
	window *gocv.Window
}

// NewDisplay opens a named display window.
func NewDisplay(name string) (*Display, error) {
	w := gocv.NewWindow(name)
	if w == nil {
		return nil, errors.New("failed to create display window")
	}
	return &Display{window: w}, nil
}

// Show renders the frame in the window.
func (d *Display) Show(frame gocv.Mat) {
	d.window.IMShow(frame)
}

// PollKey waits up to timeoutMs milliseconds for a key press and returns
// the pressed key, or -1 when none was pressed.
func (d *Display) PollKey(timeoutMs int) int {
	return d.window.WaitKey(timeoutMs)
}

// Close destroys the window.
func (d *Display) Close() error {
	return d.window.Close()
}
