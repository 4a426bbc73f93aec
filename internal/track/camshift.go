package track

import (
	"image"
	"math"
)

// TermCriteria bounds the mean-shift iteration: the search stops after
// MaxIter iterations or once the centroid shift drops below Epsilon pixels,
// whichever comes first.
type TermCriteria struct {
	MaxIter int
	Epsilon float64
}

// DefaultTermCriteria returns the standard termination bound of 10
// iterations with a one-pixel epsilon.
func DefaultTermCriteria() TermCriteria {
	return TermCriteria{MaxIter: 10, Epsilon: 1.0}
}

// OrientedRect is a rotated rectangle: center, side lengths, and rotation
// angle in degrees. It is recreated every frame; only the derived
// axis-aligned window survives as the next search seed.
type OrientedRect struct {
	CenterX float64
	CenterY float64
	Width   float64
	Height  float64
	Angle   float64
}

// Corners returns the rectangle's four corner points in drawing order.
func (r OrientedRect) Corners() [4]image.Point {
	rad := r.Angle * math.Pi / 180
	cs := math.Cos(rad)
	sn := math.Sin(rad)
	dx := r.Width / 2
	dy := r.Height / 2

	offsets := [4][2]float64{
		{-dx, -dy},
		{dx, -dy},
		{dx, dy},
		{-dx, dy},
	}

	var corners [4]image.Point
	for i, o := range offsets {
		x := r.CenterX + o[0]*cs - o[1]*sn
		y := r.CenterY + o[0]*sn + o[1]*cs
		corners[i] = image.Pt(int(math.Round(x)), int(math.Round(y)))
	}
	return corners
}

// Bounding returns the axis-aligned bounding box of the rectangle.
func (r OrientedRect) Bounding() image.Rectangle {
	c := r.Corners()
	box := image.Rectangle{Min: c[0], Max: c[0]}
	for _, p := range c[1:] {
		if p.X < box.Min.X {
			box.Min.X = p.X
		}
		if p.Y < box.Min.Y {
			box.Min.Y = p.Y
		}
		if p.X > box.Max.X {
			box.Max.X = p.X
		}
		if p.Y > box.Max.Y {
			box.Max.Y = p.Y
		}
	}
	// Max is exclusive in image.Rectangle terms
	box.Max.X++
	box.Max.Y++
	return box
}

// axisAligned converts an axis-aligned window into an OrientedRect with
// zero rotation.
func axisAligned(win image.Rectangle) OrientedRect {
	return OrientedRect{
		CenterX: float64(win.Min.X) + float64(win.Dx())/2,
		CenterY: float64(win.Min.Y) + float64(win.Dy())/2,
		Width:   float64(win.Dx()),
		Height:  float64(win.Dy()),
		Angle:   0,
	}
}

// MeanShift iteratively recenters the window on the centroid of the
// probability mass beneath it until the shift falls below crit.Epsilon or
// crit.MaxIter iterations have run. The window size is preserved. A window
// over zero probability mass stays where it is.
func MeanShift(p *ProbMap, seed image.Rectangle, crit TermCriteria) image.Rectangle {
	win := p.clamp(seed)

	for i := 0; i < crit.MaxIter; i++ {
		m := p.windowMoments(win)
		if m.m00 == 0 {
			return win
		}

		cx := m.m10 / m.m00
		cy := m.m01 / m.m00

		next := p.clamp(image.Rect(
			int(math.Round(cx-float64(win.Dx())/2)),
			int(math.Round(cy-float64(win.Dy())/2)),
			int(math.Round(cx+float64(win.Dx())/2)),
			int(math.Round(cy+float64(win.Dy())/2)),
		))

		shift := math.Hypot(
			float64(next.Min.X-win.Min.X),
			float64(next.Min.Y-win.Min.Y),
		)
		win = next

		if shift < crit.Epsilon {
			break
		}
	}

	return win
}

// CamShift runs the mean-shift search from the seed window, then derives
// the tracked region's scale and orientation from the second-order moments
// of the converged window. It returns the oriented region and the
// axis-aligned window to seed the next frame's search.
//
// If the probability mass under the window is zero, the seed is returned
// unchanged as an unrotated region: the tracker degrades to holding
// position rather than producing an undefined result.
func CamShift(p *ProbMap, seed image.Rectangle, crit TermCriteria) (OrientedRect, image.Rectangle) {
	seed = p.clamp(seed)
	win := MeanShift(p, seed, crit)

	m := p.windowMoments(win)
	if m.m00 == 0 {
		return axisAligned(seed), seed
	}

	xc := m.m10 / m.m00
	yc := m.m01 / m.m00

	// Central second moments
	a := m.m20/m.m00 - xc*xc
	b := m.m11/m.m00 - xc*yc
	c := m.m02/m.m00 - yc*yc

	// Principal axes of the mass distribution give the region's
	// orientation; side lengths follow from the eigenvalues, scaled the
	// way CamShift scales a uniform rectangle's variance back to extent.
	common := math.Sqrt((a-c)*(a-c) + 4*b*b)
	theta := 0.5 * math.Atan2(2*b, a-c)

	major := 4 * math.Sqrt(math.Max(0, (a+c+common)/2))
	minor := 4 * math.Sqrt(math.Max(0, (a+c-common)/2))

	// A near-point mass still yields a visible, trackable region.
	if major < 1 {
		major = 1
	}
	if minor < 1 {
		minor = 1
	}

	region := OrientedRect{
		CenterX: xc,
		CenterY: yc,
		Width:   major,
		Height:  minor,
		Angle:   theta * 180 / math.Pi,
	}

	next := p.clamp(region.Bounding())

	return region, next
}
