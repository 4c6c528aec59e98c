package align

import (
	"image"
	"math"

	"github.com/ironsheep/sheetscan/internal/detection"
	"github.com/ironsheep/sheetscan/internal/imaging"
)

// Canny thresholds and morphology tuned for document outlines on desks and
// scanner beds.
const (
	edgeThresholdLow  = 50
	edgeThresholdHigh = 150
	dilateRadius      = 2
	minContourSize    = 10
)

// Rectify locates the document outline in img and resamples it into the
// stage's target rectangle.
//
// The outline search edge-detects the frame, dilates to close gaps,
// extracts contours sorted by area, and takes the first of the largest
// eight that approximates to a quadrilateral (largest area wins, not best
// fit). The ordered corners define a perspective transform into the target
// rectangle, which is filled by inverse-mapped bilinear sampling.
//
// Returns ok=false on any failure — nil input, degenerate frame, or no
// quadrilateral found. Rectification never returns an error; callers treat
// a false result uniformly.
func (s *Stage) Rectify(img image.Image) (image.Image, bool) {
	if img == nil {
		return nil, false
	}
	bounds := img.Bounds()
	if bounds.Dx() < 4 || bounds.Dy() < 4 {
		return nil, false
	}

	edges := imaging.EdgeMap(img, edgeThresholdLow, edgeThresholdHigh)
	edges = imaging.Dilate(edges, dilateRadius)

	contours := detection.FindContours(edges, minContourSize)
	if len(contours) == 0 {
		return nil, false
	}

	quad, ok := detection.FindDocumentQuad(contours)
	if !ok {
		return nil, false
	}

	h, ok := homography(s.outWidth, s.outHeight, quad)
	if !ok {
		return nil, false
	}

	return warp(img, h, s.outWidth, s.outHeight), true
}

// homography computes the 3x3 perspective transform mapping the target
// rectangle's corners onto the source quadrilateral, so the warp can be
// filled by inverse mapping. Returns ok=false for a degenerate quad.
func homography(outW, outH int, quad detection.Quad) ([9]float64, bool) {
	dst := [4][2]float64{
		{0, 0},
		{float64(outW - 1), 0},
		{float64(outW - 1), float64(outH - 1)},
		{0, float64(outH - 1)},
	}
	src := [4][2]float64{
		{float64(quad[0].X), float64(quad[0].Y)},
		{float64(quad[1].X), float64(quad[1].Y)},
		{float64(quad[2].X), float64(quad[2].Y)},
		{float64(quad[3].X), float64(quad[3].Y)},
	}

	// Eight equations in h11..h32 with h33 fixed at 1.
	var m [8][9]float64
	for i := 0; i < 4; i++ {
		u, v := dst[i][0], dst[i][1]
		x, y := src[i][0], src[i][1]
		m[2*i] = [9]float64{u, v, 1, 0, 0, 0, -u * x, -v * x, x}
		m[2*i+1] = [9]float64{0, 0, 0, u, v, 1, -u * y, -v * y, y}
	}

	// Gaussian elimination with partial pivoting.
	for col := 0; col < 8; col++ {
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(m[pivot][col]) < 1e-10 {
			return [9]float64{}, false
		}
		m[col], m[pivot] = m[pivot], m[col]

		for row := col + 1; row < 8; row++ {
			f := m[row][col] / m[col][col]
			for k := col; k < 9; k++ {
				m[row][k] -= f * m[col][k]
			}
		}
	}

	var sol [8]float64
	for row := 7; row >= 0; row-- {
		sum := m[row][8]
		for k := row + 1; k < 8; k++ {
			sum -= m[row][k] * sol[k]
		}
		sol[row] = sum / m[row][row]
	}

	return [9]float64{
		sol[0], sol[1], sol[2],
		sol[3], sol[4], sol[5],
		sol[6], sol[7], 1,
	}, true
}

// warp resamples src into an outW x outH image by applying h to every
// destination pixel and bilinearly interpolating the source.
func warp(src image.Image, h [9]float64, outW, outH int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, outW, outH))
	bounds := src.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	for v := 0; v < outH; v++ {
		for u := 0; u < outW; u++ {
			fu, fv := float64(u), float64(v)
			w := h[6]*fu + h[7]*fv + h[8]
			if w == 0 {
				continue
			}
			sx := (h[0]*fu + h[1]*fv + h[2]) / w
			sy := (h[3]*fu + h[4]*fv + h[5]) / w

			if sx < 0 || sy < 0 || sx > float64(srcW-1) || sy > float64(srcH-1) {
				continue
			}

			x0 := int(sx)
			y0 := int(sy)
			x1 := x0 + 1
			y1 := y0 + 1
			if x1 > srcW-1 {
				x1 = srcW - 1
			}
			if y1 > srcH-1 {
				y1 = srcH - 1
			}
			fx := sx - float64(x0)
			fy := sy - float64(y0)

			r00, g00, b00, a00 := src.At(bounds.Min.X+x0, bounds.Min.Y+y0).RGBA()
			r10, g10, b10, a10 := src.At(bounds.Min.X+x1, bounds.Min.Y+y0).RGBA()
			r01, g01, b01, a01 := src.At(bounds.Min.X+x0, bounds.Min.Y+y1).RGBA()
			r11, g11, b11, a11 := src.At(bounds.Min.X+x1, bounds.Min.Y+y1).RGBA()

			lerp2 := func(c00, c10, c01, c11 uint32) uint8 {
				top := float64(c00>>8)*(1-fx) + float64(c10>>8)*fx
				bot := float64(c01>>8)*(1-fx) + float64(c11>>8)*fx
				return uint8(top*(1-fy) + bot*fy + 0.5)
			}

			i := out.PixOffset(u, v)
			out.Pix[i] = lerp2(r00, r10, r01, r11)
			out.Pix[i+1] = lerp2(g00, g10, g01, g11)
			out.Pix[i+2] = lerp2(b00, b10, b01, b11)
			out.Pix[i+3] = lerp2(a00, a10, a01, a11)
		}
	}
	return out
}
