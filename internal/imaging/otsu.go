package imaging

import "image"

// OtsuLevel computes the Otsu threshold for an 8-bit grayscale image.
//
// The threshold maximizes between-class variance over the image histogram,
// splitting pixels into a dark (marked) and a light (paper) class. It
// adapts to exposure differences between scanners and cameras without any
// per-device calibration.
func OtsuLevel(gray *image.Gray) uint8 {
	var hist [256]int
	bounds := gray.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
		}
	}

	var sum float64
	for i := 0; i < 256; i++ {
		sum += float64(i) * float64(hist[i])
	}

	var sumB, wB float64
	var maxVariance float64
	var level uint8

	for i := 0; i < 256; i++ {
		wB += float64(hist[i])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(hist[i])

		mB := sumB / wB
		mF := (sum - sumB) / wF
		variance := wB * wF * (mB - mF) * (mB - mF)
		if variance > maxVariance {
			maxVariance = variance
			level = uint8(i)
		}
	}
	return level
}

// DarkRatio returns the fraction of pixels at or below the threshold level.
// With an Otsu level this is the filled-ink ratio of the region, which the
// extraction engine uses directly as a fill score.
func DarkRatio(gray *image.Gray, level uint8) float64 {
	bounds := gray.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}

	dark := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if gray.GrayAt(x, y).Y <= level {
				dark++
			}
		}
	}
	return float64(dark) / float64(total)
}
