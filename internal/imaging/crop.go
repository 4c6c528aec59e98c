package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ROI is a rectangular region of interest in pixel coordinates.
type ROI struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Rect converts the ROI to a standard image.Rectangle.
func (r ROI) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// CropROI extracts a region from an image.
//
// The region is clamped to the image bounds before cropping; a region that
// falls entirely outside the image yields an error. This differs from
// strict crop semantics on purpose: mapped ROIs sit at most one rounding
// step outside the page after mm->px conversion, and a one-pixel clamp is
// preferable to failing the whole sheet.
func CropROI(img image.Image, roi ROI) (image.Image, error) {
	bounds := img.Bounds()
	rect := roi.Rect().Add(bounds.Min).Intersect(bounds)
	if rect.Empty() {
		return nil, fmt.Errorf("roi (%d,%d %dx%d) outside image bounds %v", roi.X, roi.Y, roi.W, roi.H, bounds)
	}
	return imaging.Crop(img, rect), nil
}

// SplitROI divides a region into n equal boxes along the given axis
// ("x" for horizontally arranged choices, "y" for vertical). Each box keeps
// a minimum extent of one pixel. Used to turn a question ROI into one box
// per answer choice.
func SplitROI(roi ROI, n int, axis string) []ROI {
	if n <= 0 {
		return nil
	}

	boxes := make([]ROI, 0, n)
	if axis == "y" {
		step := float64(roi.H) / float64(n)
		for i := 0; i < n; i++ {
			y := roi.Y + int(float64(i)*step+0.5)
			h := int(step + 0.5)
			if h < 1 {
				h = 1
			}
			boxes = append(boxes, ROI{X: roi.X, Y: y, W: roi.W, H: h})
		}
		return boxes
	}

	step := float64(roi.W) / float64(n)
	for i := 0; i < n; i++ {
		x := roi.X + int(float64(i)*step+0.5)
		w := int(step + 0.5)
		if w < 1 {
			w = 1
		}
		boxes = append(boxes, ROI{X: x, Y: roi.Y, W: w, H: roi.H})
	}
	return boxes
}
