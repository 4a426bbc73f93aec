// Package track locates a tracked region on a probability map using an
// iterative mean-shift search with adaptive window scale and orientation.
package track

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ProbMap is a width x height grid of 8-bit likelihood values, typically a
// hue-histogram back-projection. Pixel (x, y) is stored at pix[y*w+x].
type ProbMap struct {
	w, h int
	pix  []uint8
}

// NewProbMap creates a ProbMap over the given pixel buffer.
func NewProbMap(w, h int, pix []uint8) (*ProbMap, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid probability map size %dx%d", w, h)
	}
	if len(pix) != w*h {
		return nil, fmt.Errorf("probability map buffer has %d bytes, want %d", len(pix), w*h)
	}
	return &ProbMap{w: w, h: h, pix: pix}, nil
}

// ProbMapFromMat copies a single-channel 8-bit Mat (such as the result of a
// histogram back-projection) into a ProbMap. The Mat may be closed after
// this call.
func ProbMapFromMat(m gocv.Mat) (*ProbMap, error) {
	if m.Empty() {
		return nil, errors.New("mat is empty")
	}
	if m.Channels() != 1 || m.Type() != gocv.MatTypeCV8U {
		return nil, fmt.Errorf("mat type %v with %d channels, want single-channel 8-bit", m.Type(), m.Channels())
	}

	pix := make([]uint8, m.Rows()*m.Cols())
	copy(pix, m.ToBytes())

	return NewProbMap(m.Cols(), m.Rows(), pix)
}

// Width returns the map width in pixels.
func (p *ProbMap) Width() int { return p.w }

// Height returns the map height in pixels.
func (p *ProbMap) Height() int { return p.h }

// At returns the likelihood at (x, y). Out-of-bounds coordinates return 0.
func (p *ProbMap) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= p.w || y >= p.h {
		return 0
	}
	return p.pix[y*p.w+x]
}

// Bounds returns the map extent as a rectangle anchored at the origin.
func (p *ProbMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.w, p.h)
}

// clamp constrains a window to the map, preserving its size where possible
// and guaranteeing at least one pixel of coverage.
func (p *ProbMap) clamp(win image.Rectangle) image.Rectangle {
	w := win.Dx()
	h := win.Dy()
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w > p.w {
		w = p.w
	}
	if h > p.h {
		h = p.h
	}

	x := win.Min.X
	y := win.Min.Y
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x+w > p.w {
		x = p.w - w
	}
	if y+h > p.h {
		y = p.h - h
	}

	return image.Rect(x, y, x+w, y+h)
}

// moments holds raw image moments of a window, in map coordinates.
type moments struct {
	m00, m10, m01 float64
	m20, m02, m11 float64
}

// windowMoments computes raw moments up to second order over the window.
func (p *ProbMap) windowMoments(win image.Rectangle) moments {
	var m moments
	for y := win.Min.Y; y < win.Max.Y; y++ {
		row := p.pix[y*p.w : y*p.w+p.w]
		fy := float64(y)
		for x := win.Min.X; x < win.Max.X; x++ {
			v := float64(row[x])
			if v == 0 {
				continue
			}
			fx := float64(x)
			m.m00 += v
			m.m10 += v * fx
			m.m01 += v * fy
			m.m20 += v * fx * fx
			m.m02 += v * fy * fy
			m.m11 += v * fx * fy
		}
	}
	return m
}
