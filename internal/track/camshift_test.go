package track

import (
	"image"
	"math"
	"testing"

	"gocv.io/x/gocv"
)

// uniformSquareMap builds a w x h map that is zero everywhere except a
// square of the given value.
func uniformSquareMap(w, h int, square image.Rectangle, value uint8) *ProbMap {
	pix := make([]uint8, w*h)
	for y := square.Min.Y; y < square.Max.Y; y++ {
		for x := square.Min.X; x < square.Max.X; x++ {
			pix[y*w+x] = value
		}
	}
	p, err := NewProbMap(w, h, pix)
	if err != nil {
		panic(err)
	}
	return p
}

func TestNewProbMap_Validation(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		bufLen  int
		wantErr bool
	}{
		{name: "valid", w: 4, h: 3, bufLen: 12, wantErr: false},
		{name: "short buffer", w: 4, h: 3, bufLen: 11, wantErr: true},
		{name: "zero width", w: 0, h: 3, bufLen: 0, wantErr: true},
		{name: "negative height", w: 4, h: -1, bufLen: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProbMap(tt.w, tt.h, make([]uint8, tt.bufLen))
			if (err != nil) != tt.wantErr {
				t.Errorf("NewProbMap() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProbMap_At_OutOfBounds(t *testing.T) {
	p := uniformSquareMap(10, 10, image.Rect(0, 0, 10, 10), 7)

	if got := p.At(-1, 5); got != 0 {
		t.Errorf("At(-1, 5) = %d, want 0", got)
	}
	if got := p.At(5, 10); got != 0 {
		t.Errorf("At(5, 10) = %d, want 0", got)
	}
	if got := p.At(3, 3); got != 7 {
		t.Errorf("At(3, 3) = %d, want 7", got)
	}
}

func TestMeanShift_ConvergesToMass(t *testing.T) {
	// Mass sits at the right side of the map; the seed starts at the left
	// but overlaps the mass enough to be pulled onto it.
	p := uniformSquareMap(200, 100, image.Rect(120, 40, 160, 80), 255)

	seed := image.Rect(100, 30, 140, 70)
	win := MeanShift(p, seed, DefaultTermCriteria())

	cx := float64(win.Min.X) + float64(win.Dx())/2
	cy := float64(win.Min.Y) + float64(win.Dy())/2

	if math.Abs(cx-140) > 2 || math.Abs(cy-60) > 2 {
		t.Errorf("converged center = (%.1f, %.1f), want near (140, 60)", cx, cy)
	}
}

func TestMeanShift_ZeroMassHoldsPosition(t *testing.T) {
	p := uniformSquareMap(100, 100, image.Rect(0, 0, 0, 0), 0)

	seed := image.Rect(20, 20, 50, 50)
	win := MeanShift(p, seed, DefaultTermCriteria())

	if win != seed {
		t.Errorf("window = %v, want seed %v unchanged on zero mass", win, seed)
	}
}

func TestCamShift_Idempotence(t *testing.T) {
	// Seed already centered on the global maximum of the field: the
	// reported center must shift by less than epsilon.
	square := image.Rect(40, 40, 60, 60)
	p := uniformSquareMap(100, 100, square, 255)

	crit := DefaultTermCriteria()
	seed := square

	region, _ := CamShift(p, seed, crit)

	seedCx := float64(seed.Min.X) + float64(seed.Dx())/2
	seedCy := float64(seed.Min.Y) + float64(seed.Dy())/2

	shift := math.Hypot(region.CenterX-seedCx, region.CenterY-seedCy)
	if shift >= crit.Epsilon {
		t.Errorf("center shift = %.3f, want < %.3f", shift, crit.Epsilon)
	}

	// Re-running on the unchanged field from the returned window must
	// stay put as well.
	_, next := CamShift(p, seed, crit)
	region2, _ := CamShift(p, next, crit)

	shift = math.Hypot(region2.CenterX-region.CenterX, region2.CenterY-region.CenterY)
	if shift >= crit.Epsilon {
		t.Errorf("center shift between identical frames = %.3f, want < %.3f", shift, crit.Epsilon)
	}
}

func TestCamShift_ZeroMassReturnsSeed(t *testing.T) {
	p := uniformSquareMap(100, 100, image.Rect(0, 0, 0, 0), 0)

	seed := image.Rect(10, 20, 40, 60)
	region, next := CamShift(p, seed, DefaultTermCriteria())

	if next != seed {
		t.Errorf("next window = %v, want seed %v", next, seed)
	}

	if math.IsNaN(region.CenterX) || math.IsNaN(region.CenterY) ||
		math.IsNaN(region.Width) || math.IsNaN(region.Height) || math.IsNaN(region.Angle) {
		t.Fatalf("region contains NaN: %+v", region)
	}

	if region.CenterX != 25 || region.CenterY != 40 {
		t.Errorf("region center = (%.1f, %.1f), want seed center (25, 40)", region.CenterX, region.CenterY)
	}
	if region.Width != 30 || region.Height != 40 {
		t.Errorf("region size = %.1fx%.1f, want seed size 30x40", region.Width, region.Height)
	}
	if region.Angle != 0 {
		t.Errorf("region angle = %.1f, want 0", region.Angle)
	}
}

func TestCamShift_TracksMovingSquare(t *testing.T) {
	// A solid square slides left to right; the reported center's x must
	// strictly increase frame over frame and the region stay non-empty.
	const (
		mapW, mapH = 320, 120
		side       = 24
		step       = 6
		frames     = 30
	)

	seed := image.Rect(10, 48, 10+side, 48+side)
	prevX := math.Inf(-1)
	crit := DefaultTermCriteria()

	for i := 0; i < frames; i++ {
		x0 := 10 + i*step
		p := uniformSquareMap(mapW, mapH, image.Rect(x0, 48, x0+side, 48+side), 255)

		region, next := CamShift(p, seed, crit)
		seed = next

		if region.Width <= 0 || region.Height <= 0 {
			t.Fatalf("frame %d: region is empty: %+v", i, region)
		}

		if region.CenterX <= prevX {
			t.Fatalf("frame %d: center x = %.2f, not greater than previous %.2f", i, region.CenterX, prevX)
		}
		prevX = region.CenterX
	}
}

func TestCamShift_RecoversOrientationAndScale(t *testing.T) {
	// An axis-aligned solid bar: the major axis must be horizontal and the
	// recovered extents close to the bar's true size. A uniform strip of
	// extent S has variance S*S/12, so the 4*sqrt(variance) scaling gives
	// roughly 1.15*S per side.
	bar := image.Rect(60, 50, 140, 70) // 80x20
	p := uniformSquareMap(200, 120, bar, 255)

	region, _ := CamShift(p, image.Rect(50, 40, 150, 80), DefaultTermCriteria())

	if math.Abs(region.CenterX-100) > 1 || math.Abs(region.CenterY-60) > 1 {
		t.Errorf("center = (%.1f, %.1f), want near (100, 60)", region.CenterX, region.CenterY)
	}

	angle := math.Mod(math.Abs(region.Angle), 180)
	if angle > 5 && angle < 175 {
		t.Errorf("angle = %.1f degrees, want near horizontal", region.Angle)
	}

	if math.Abs(region.Width-80*1.155) > 8 {
		t.Errorf("major extent = %.1f, want near %.1f", region.Width, 80*1.155)
	}
	if math.Abs(region.Height-20*1.155) > 4 {
		t.Errorf("minor extent = %.1f, want near %.1f", region.Height, 20*1.155)
	}
}

func TestOrientedRect_Corners(t *testing.T) {
	tests := []struct {
		name string
		rect OrientedRect
		want [4]image.Point
	}{
		{
			name: "unrotated",
			rect: OrientedRect{CenterX: 50, CenterY: 40, Width: 20, Height: 10, Angle: 0},
			want: [4]image.Point{{40, 35}, {60, 35}, {60, 45}, {40, 45}},
		},
		{
			name: "quarter turn",
			rect: OrientedRect{CenterX: 50, CenterY: 40, Width: 20, Height: 10, Angle: 90},
			want: [4]image.Point{{55, 30}, {55, 50}, {45, 50}, {45, 30}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rect.Corners()
			for i := range got {
				dx := got[i].X - tt.want[i].X
				dy := got[i].Y - tt.want[i].Y
				if dx < -1 || dx > 1 || dy < -1 || dy > 1 {
					t.Errorf("corner %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestProbMapFromMat(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	mat := gocv.NewMatWithSize(40, 60, gocv.MatTypeCV8U)
	defer mat.Close()
	mat.SetUCharAt(10, 20, 200)

	p, err := ProbMapFromMat(mat)
	if err != nil {
		t.Fatalf("ProbMapFromMat() error = %v", err)
	}

	if p.Width() != 60 || p.Height() != 40 {
		t.Errorf("size = %dx%d, want 60x40", p.Width(), p.Height())
	}
	if got := p.At(20, 10); got != 200 {
		t.Errorf("At(20, 10) = %d, want 200", got)
	}
}

func TestProbMapFromMat_RejectsColor(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	mat := gocv.NewMatWithSize(40, 60, gocv.MatTypeCV8UC3)
	defer mat.Close()

	if _, err := ProbMapFromMat(mat); err == nil {
		t.Error("ProbMapFromMat() should reject a 3-channel mat")
	}
}
