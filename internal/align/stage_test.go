package align

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/sheetscan/internal/detection"
)

func quadFromCorners(tlx, tly, trx, try, brx, bry, blx, bly int) detection.Quad {
	return detection.Quad{
		{X: tlx, Y: tly},
		{X: trx, Y: try},
		{X: brx, Y: bry},
		{X: blx, Y: bly},
	}
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// darkBackground builds a dark frame with a white page region from
// (x1,y1) inclusive to (x2,y2) exclusive, mimicking a sheet photographed
// on a desk.
func darkBackground(width, height, x1, y1, x2, y2 int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x >= x1 && x < x2 && y >= y1 && y < y2 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.RGBA{30, 30, 30, 255})
			}
		}
	}
	return img
}

func uniformImage(width, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"scan", ModeScan, false},
		{"photo", ModePhoto, false},
		{"auto", ModeAuto, false},
		{"", "", true},
		{"video", "", true},
		{"Scan", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAlign_ScanPassthrough(t *testing.T) {
	img := uniformImage(120, 90, color.White)
	stage := NewStage(200, 150)

	out, err := stage.Align(img, ModeScan)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if !out.Aligned {
		t.Error("scan mode must report aligned")
	}
	if out.Width != 120 || out.Height != 90 {
		t.Errorf("scan output size: got %dx%d, want 120x90 (input, not target)", out.Width, out.Height)
	}
	if out.Image != img {
		t.Error("scan mode must pass the input through unchanged")
	}
}

func TestAlign_PhotoWarpFailure(t *testing.T) {
	// Featureless frame: no outline to rectify against
	img := uniformImage(100, 100, color.RGBA{128, 128, 128, 255})
	stage := NewStage(100, 80)

	_, err := stage.Align(img, ModePhoto)
	if !errors.Is(err, ErrWarpFailed) {
		t.Fatalf("expected ErrWarpFailed, got %v", err)
	}
	if err.Error() != "warp_failed_for_photo_mode" {
		t.Errorf("failure message: got %q", err.Error())
	}
}

func TestAlign_AutoFallsBack(t *testing.T) {
	img := uniformImage(100, 100, color.RGBA{128, 128, 128, 255})
	stage := NewStage(100, 80)

	out, err := stage.Align(img, ModeAuto)
	if err != nil {
		t.Fatalf("auto mode must not fail: %v", err)
	}
	if out.Aligned {
		t.Error("fallback output must report aligned=false")
	}
	if out.Width != 100 || out.Height != 100 {
		t.Errorf("fallback keeps input size: got %dx%d", out.Width, out.Height)
	}
}

func TestAlign_PhotoRectifies(t *testing.T) {
	img := darkBackground(300, 300, 40, 60, 260, 240)
	stage := NewStage(150, 100)

	out, err := stage.Align(img, ModePhoto)
	if err != nil {
		t.Fatalf("Align failed: %v", err)
	}
	if !out.Aligned {
		t.Error("successful rectification must report aligned")
	}
	if out.Width != 150 || out.Height != 100 {
		t.Errorf("rectified size: got %dx%d, want 150x100", out.Width, out.Height)
	}

	// The warped output should be dominated by the white page
	r, g, b, _ := out.Image.At(75, 50).RGBA()
	if r>>8 < 200 || g>>8 < 200 || b>>8 < 200 {
		t.Errorf("page center after warp: got (%d,%d,%d), want near white", r>>8, g>>8, b>>8)
	}
}

func TestAlign_UnknownMode(t *testing.T) {
	stage := NewStage(100, 100)
	if _, err := stage.Align(uniformImage(10, 10, color.White), Mode("video")); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestRectify_NilAndTinyImages(t *testing.T) {
	stage := NewStage(100, 100)

	if _, ok := stage.Rectify(nil); ok {
		t.Error("nil image must not rectify")
	}
	if _, ok := stage.Rectify(uniformImage(2, 2, color.White)); ok {
		t.Error("tiny image must not rectify")
	}
}

func TestHomography_IdentityRectangle(t *testing.T) {
	// Mapping a rectangle onto itself: transform must be near identity
	quad := quadFromCorners(0, 0, 99, 0, 99, 79, 0, 79)
	h, ok := homography(100, 80, quad)
	if !ok {
		t.Fatal("homography failed for a plain rectangle")
	}

	// Destination corner (99,79) must land on source corner (99,79)
	u, v := 99.0, 79.0
	w := h[6]*u + h[7]*v + h[8]
	sx := (h[0]*u + h[1]*v + h[2]) / w
	sy := (h[3]*u + h[4]*v + h[5]) / w
	if absFloat(sx-99) > 0.01 || absFloat(sy-79) > 0.01 {
		t.Errorf("corner mapping: got (%.2f,%.2f), want (99,79)", sx, sy)
	}
}

func TestHomography_DegenerateQuad(t *testing.T) {
	// All corners collapsed to one point: no valid transform exists
	quad := quadFromCorners(5, 5, 5, 5, 5, 5, 5, 5)
	if _, ok := homography(100, 80, quad); ok {
		t.Error("degenerate quad must fail")
	}
}
