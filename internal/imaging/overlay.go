package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
)

// OverlayBox is one annotated region in a QA overlay: a mapped ROI plus the
// status the extraction engine assigned to it.
type OverlayBox struct {
	ROI    ROI    `json:"roi"`
	Label  string `json:"label"`  // question number or digit index
	Status string `json:"status"` // ok | blank | ambiguous | low_confidence | error
}

// statusHue maps extraction statuses to fixed hues so operators can read an
// overlay at a glance: green is fine, everything warm needs a look.
var statusHue = map[string]float64{
	"ok":             120, // green
	"low_confidence": 60,  // yellow
	"ambiguous":      30,  // orange
	"blank":          210, // blue
	"error":          0,   // red
}

// RenderOverlay draws the given boxes onto a copy of the image for manual
// QA. Box outlines are color-coded by status and labeled with their
// question number or digit index. The input image is not modified.
func RenderOverlay(img image.Image, boxes []OverlayBox) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)

	for _, b := range boxes {
		c := statusColor(b.Status)
		drawRect(out, b.ROI, c)
		if b.Label != "" {
			drawLabel(out, b.ROI.X+2, b.ROI.Y+2, b.Label, color.RGBA{255, 255, 255, 255}, c)
		}
	}
	return out
}

// statusColor returns the outline color for a status. Unknown statuses
// render gray rather than failing the overlay.
func statusColor(status string) color.RGBA {
	hue, ok := statusHue[status]
	if !ok {
		return color.RGBA{128, 128, 128, 255}
	}
	r, g, b := colorful.Hsv(hue, 0.85, 0.9).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// drawRect draws a one-pixel rectangle outline clipped to the image bounds.
func drawRect(img *image.RGBA, roi ROI, c color.RGBA) {
	bounds := img.Bounds()
	x2 := roi.X + roi.W - 1
	y2 := roi.Y + roi.H - 1

	for x := roi.X; x <= x2; x++ {
		if x < bounds.Min.X || x >= bounds.Max.X {
			continue
		}
		if roi.Y >= bounds.Min.Y && roi.Y < bounds.Max.Y {
			img.SetRGBA(x, roi.Y, c)
		}
		if y2 >= bounds.Min.Y && y2 < bounds.Max.Y {
			img.SetRGBA(x, y2, c)
		}
	}
	for y := roi.Y; y <= y2; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		if roi.X >= bounds.Min.X && roi.X < bounds.Max.X {
			img.SetRGBA(roi.X, y, c)
		}
		if x2 >= bounds.Min.X && x2 < bounds.Max.X {
			img.SetRGBA(x2, y, c)
		}
	}
}

// drawLabel draws a simple text label at the given position using a 3x5
// pixel digit font. Good enough for question numbers on QA output; anything
// richer belongs in a frontend.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		'd': {"001", "001", "111", "101", "111"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	// Draw background
	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			px, py := x+dx, y+dy
			if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
				img.SetRGBA(px, py, bg)
			}
		}
	}

	// Draw text
	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					px, py := cx+col, y+row
					if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
						img.SetRGBA(px, py, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}

// FormatLabel renders a numeric overlay label.
func FormatLabel(n int) string {
	return strconv.Itoa(n)
}
