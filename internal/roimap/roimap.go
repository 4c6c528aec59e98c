// Package roimap converts millimeter-space blueprint regions into pixel
// regions on an aligned image.
//
// The conversion assumes the aligned image's full extent equals the
// blueprint's page extent exactly, with no residual margin. That holds for
// scanner output and for rectified photos by construction; it is a
// documented simplifying assumption, not a general homography.
package roimap

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/sheetscan/internal/blueprint"
	"github.com/ironsheep/sheetscan/internal/imaging"
)

// ErrInvalidGeometry reports a blueprint whose page size cannot anchor a
// scale (zero or negative extent).
var ErrInvalidGeometry = errors.New("invalid blueprint geometry")

// PageScale converts millimeter coordinates to pixels with independent
// horizontal and vertical factors.
type PageScale struct {
	SX   float64
	SY   float64
	ImgW int
	ImgH int
}

// NewPageScale derives the scale for an aligned image of the given pixel
// size over the blueprint's page.
func NewPageScale(page blueprint.PageSize, imgW, imgH int) (*PageScale, error) {
	if imgW <= 0 || imgH <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrInvalidGeometry, imgW, imgH)
	}
	if page.Width <= 0 || page.Height <= 0 {
		return nil, fmt.Errorf("%w: page size %gx%g mm", ErrInvalidGeometry, page.Width, page.Height)
	}
	return &PageScale{
		SX:   float64(imgW) / page.Width,
		SY:   float64(imgH) / page.Height,
		ImgW: imgW,
		ImgH: imgH,
	}, nil
}

// Point converts a millimeter point, rounded to the nearest pixel and
// clamped inside the image.
func (s *PageScale) Point(xmm, ymm float64) (int, int) {
	x := clampInt(int(math.Round(xmm*s.SX)), 0, s.ImgW-1)
	y := clampInt(int(math.Round(ymm*s.SY)), 0, s.ImgH-1)
	return x, y
}

// LenX converts a millimeter length along X, minimum one pixel.
func (s *PageScale) LenX(mm float64) int {
	v := int(math.Round(mm * s.SX))
	if v < 1 {
		v = 1
	}
	return v
}

// LenY converts a millimeter length along Y, minimum one pixel.
func (s *PageScale) LenY(mm float64) int {
	v := int(math.Round(mm * s.SY))
	if v < 1 {
		v = 1
	}
	return v
}

// rect converts a millimeter rectangle with the clamping rules: origin
// inside the image, extent at least one pixel and cut off at the image
// edge.
func (s *PageScale) rect(r blueprint.MMRect) imaging.ROI {
	x := clampInt(int(math.Round(r.X*s.SX)), 0, s.ImgW-1)
	y := clampInt(int(math.Round(r.Y*s.SY)), 0, s.ImgH-1)
	w := clampInt(int(math.Round(r.W*s.SX)), 1, s.ImgW-x)
	h := clampInt(int(math.Round(r.H*s.SY)), 1, s.ImgH-y)
	return imaging.ROI{X: x, Y: y, W: w, H: h}
}

// Question is a question's mark region mapped into pixel space.
type Question struct {
	QuestionNumber int
	ROI            imaging.ROI
	Choices        []string
}

// Bubble is one identifier bubble mapped into pixel space. The ROI is a
// square around the bubble center, expanded beyond the printed radius to
// absorb center error from capture and rectification.
type Bubble struct {
	DigitIndex int
	Number     int
	ROI        imaging.ROI
}

// MapQuestions converts every blueprint question ROI into pixel space.
//
// The output is sorted by question number ascending and always contains
// exactly as many entries as the blueprint has questions.
func MapQuestions(bp *blueprint.Blueprint, imgW, imgH int) ([]Question, error) {
	scale, err := NewPageScale(bp.Page, imgW, imgH)
	if err != nil {
		return nil, err
	}

	out := make([]Question, 0, len(bp.Questions))
	for _, q := range bp.Questions {
		choices := make([]string, 0, len(q.Choices))
		for _, c := range q.Choices {
			choices = append(choices, c.Choice)
		}
		if len(choices) == 0 {
			// Legacy question lists may omit the choice set.
			choices = []string{"A", "B", "C", "D", "E"}
		}
		out = append(out, Question{
			QuestionNumber: q.QuestionNumber,
			ROI:            scale.rect(q.ROI),
			Choices:        choices,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].QuestionNumber < out[j].QuestionNumber
	})
	return out, nil
}

// MapIdentifier converts every identifier bubble into an expanded pixel
// square. expand is the ROI expansion factor over the printed bubble
// radius (1.60 is the operating default). Returns nil when the blueprint
// carries no identifier layout.
func MapIdentifier(bp *blueprint.Blueprint, imgW, imgH int, expand float64) ([]Bubble, error) {
	if !bp.HasIdentifier() {
		return nil, nil
	}

	scale, err := NewPageScale(bp.Page, imgW, imgH)
	if err != nil {
		return nil, err
	}

	out := make([]Bubble, 0, len(bp.Identifier.Bubbles))
	for _, b := range bp.Identifier.Bubbles {
		cx, cy := scale.Point(b.Center.X, b.Center.Y)

		// Radius uses the average of both scale factors for robustness
		// against slightly anisotropic captures.
		rx := scale.LenX(b.Radius)
		ry := scale.LenY(b.Radius)
		r := (rx + ry + 1) / 2
		if r < 2 {
			r = 2
		}

		side := int(math.Round(float64(r)*expand)) * 2
		x := clampInt(cx-side/2, 0, imgW-1)
		y := clampInt(cy-side/2, 0, imgH-1)
		w := clampInt(side, 1, imgW-x)
		h := clampInt(side, 1, imgH-y)

		out = append(out, Bubble{
			DigitIndex: b.DigitIndex,
			Number:     b.Number,
			ROI:        imaging.ROI{X: x, Y: y, W: w, H: h},
		})
	}
	return out, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
