package extract

import (
	"errors"
	"image"

	"github.com/anthonynsimon/bild/blur"

	"github.com/ironsheep/sheetscan/internal/imaging"
)

// Scorer computes how filled a mark region is, in [0,1]. Implementations
// must be safe for concurrent use; the engine calls Score once per
// candidate region.
//
// Scorer is an injected capability so that classical thresholding and
// learned models are interchangeable without touching classification
// logic.
type Scorer interface {
	Score(roi image.Image) (float64, error)
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(roi image.Image) (float64, error)

func (f ScorerFunc) Score(roi image.Image) (float64, error) { return f(roi) }

// OtsuScorer is the v1 baseline fill scorer: Gaussian blur, Otsu split of
// the grayscale histogram, then the dark-pixel ratio as the score. Simple,
// fast, and calibration-free across scanners.
type OtsuScorer struct {
	// BlurRadius smooths pencil texture before thresholding. Zero
	// disables the blur.
	BlurRadius float64
}

// NewOtsuScorer returns an OtsuScorer with the operating default blur.
func NewOtsuScorer() *OtsuScorer {
	return &OtsuScorer{BlurRadius: 1.4}
}

// Score implements Scorer.
func (s *OtsuScorer) Score(roi image.Image) (float64, error) {
	if roi == nil {
		return 0, errors.New("nil roi image")
	}
	bounds := roi.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return 0, errors.New("empty roi image")
	}

	if s.BlurRadius > 0 {
		roi = blur.Gaussian(roi, s.BlurRadius)
	}

	gray := imaging.ToGray(roi)
	level := imaging.OtsuLevel(gray)
	ratio := imaging.DarkRatio(gray, level)

	if ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}
	return ratio, nil
}
