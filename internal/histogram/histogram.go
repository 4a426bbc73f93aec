// Package histogram builds hue histograms and back-projections using GoCV.
package histogram

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Histogram parameters. Hue in OpenCV's 8-bit encoding spans [0, 180),
// quantized into 16 bins; bin values are normalized into [0, 255] so the
// histogram doubles as a back-projection lookup table.
const (
	HueBins = 16
	HueMin  = 0
	HueMax  = 180
)

// ErrEmptyRegion is returned when the selection box does not intersect
// the frame.
var ErrEmptyRegion = errors.New("selection region is empty")

// HueHistogram is a normalized 16-bin distribution over hue values,
// computed once per selection and immutable until replaced.
type HueHistogram struct {
	hist gocv.Mat
}

// Build computes the hue histogram of the given region of the frame.
// The frame is converted to HSV and a 1-D histogram over the hue channel is
// computed and min-max normalized into [0, 255]. The source frame is not
// modified.
func Build(frame gocv.Mat, box image.Rectangle) (*HueHistogram, error) {
	if frame.Empty() {
		return nil, errors.New("frame is empty")
	}

	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())
	box = box.Intersect(bounds)
	if box.Dx() <= 0 || box.Dy() <= 0 {
		return nil, ErrEmptyRegion
	}

	region := frame.Region(box)
	defer region.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(region, &hsv, gocv.ColorBGRToHSV)

	mask := gocv.NewMat()
	defer mask.Close()

	hist := gocv.NewMat()
	gocv.CalcHist([]gocv.Mat{hsv}, []int{0}, mask, &hist, []int{HueBins}, []float64{HueMin, HueMax}, false)
	gocv.Normalize(hist, &hist, 0, 255, gocv.NormMinMax)

	return &HueHistogram{hist: hist}, nil
}

// BackProject computes the per-pixel likelihood map of the frame against
// the histogram: each pixel's hue is looked up in the normalized histogram,
// yielding an 8-bit single-channel map the same spatial size as the frame.
// The caller is responsible for closing the returned Mat.
func (h *HueHistogram) BackProject(frame gocv.Mat) (gocv.Mat, error) {
	if h.hist.Closed() {
		return gocv.Mat{}, errors.New("histogram is closed")
	}
	if frame.Empty() {
		return gocv.Mat{}, errors.New("frame is empty")
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	backProj := gocv.NewMat()
	gocv.CalcBackProject([]gocv.Mat{hsv}, []int{0}, h.hist, &backProj, []float64{HueMin, HueMax}, false)

	return backProj, nil
}

// Bins returns the normalized bin values. Useful for inspection and tests.
func (h *HueHistogram) Bins() ([]float32, error) {
	if h.hist.Closed() {
		return nil, errors.New("histogram is closed")
	}

	bins := make([]float32, h.hist.Rows())
	for i := range bins {
		bins[i] = h.hist.GetFloatAt(i, 0)
	}

	if len(bins) != HueBins {
		return bins, fmt.Errorf("histogram has %d bins, want %d", len(bins), HueBins)
	}

	return bins, nil
}

// Close releases the underlying histogram Mat.
func (h *HueHistogram) Close() {
	if !h.hist.Closed() {
		h.hist.Close()
	}
}
