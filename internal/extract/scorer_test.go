package extract

import (
	"image"
	"image/color"
	"testing"
)

func TestOtsuScorer_HalfFilled(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if x < 10 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}

	// No blur: the bimodal split is exact
	scorer := &OtsuScorer{BlurRadius: 0}
	score, err := scorer.Score(img)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score != 0.5 {
		t.Errorf("half-filled score: got %v, want 0.5", score)
	}
}

func TestOtsuScorer_WithBlur(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if x < 10 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}

	score, err := NewOtsuScorer().Score(img)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score < 0.35 || score > 0.65 {
		t.Errorf("blurred half-filled score: got %v, want ~0.5", score)
	}
}

func TestOtsuScorer_InvalidInput(t *testing.T) {
	scorer := NewOtsuScorer()

	if _, err := scorer.Score(nil); err == nil {
		t.Error("expected error for nil image")
	}
	if _, err := scorer.Score(image.NewRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Error("expected error for empty image")
	}
}

func TestScorerFunc(t *testing.T) {
	s := ScorerFunc(func(image.Image) (float64, error) { return 0.42, nil })
	score, err := s.Score(nil)
	if err != nil {
		t.Fatal(err)
	}
	if score != 0.42 {
		t.Errorf("score: got %v, want 0.42", score)
	}
}
