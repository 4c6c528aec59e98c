package align

import (
	"errors"
	"fmt"
	"image"
)

// Mode declares how a sheet was captured. It is an explicit caller input,
// never inferred from the image.
type Mode string

const (
	ModeScan  Mode = "scan"
	ModePhoto Mode = "photo"
	ModeAuto  Mode = "auto"
)

// ParseMode validates a mode string from a job payload.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeScan, ModePhoto, ModeAuto:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown capture mode %q", s)
	}
}

// ErrWarpFailed reports a mandatory rectification failure. It is fatal only
// in photo mode; auto mode degrades instead. The message string is part of
// the job-failure contract with the ingest side.
var ErrWarpFailed = errors.New("warp_failed_for_photo_mode")

// AlignedImage is the alignment stage output: a pixel buffer whose full
// extent corresponds to the blueprint page, plus whether rectification
// succeeded or was not required. Produced once per extraction attempt and
// never persisted.
type AlignedImage struct {
	Image   image.Image
	Width   int
	Height  int
	Aligned bool
}

// Stage aligns captured images. The zero value is not usable; construct
// with NewStage.
type Stage struct {
	outWidth  int
	outHeight int
}

// NewStage builds an alignment stage that rectifies into an outWidth x
// outHeight target (sized to the physical page aspect at print
// resolution, 3508x2480 for 300 DPI A4 landscape).
func NewStage(outWidth, outHeight int) *Stage {
	return &Stage{outWidth: outWidth, outHeight: outHeight}
}

// Align applies the requested capture mode to img.
//
//   - scan: img is returned unchanged with Aligned=true
//   - photo: rectification must succeed; failure returns ErrWarpFailed
//   - auto: rectification is attempted; failure falls back to the input
//     with Aligned=false
func (s *Stage) Align(img image.Image, mode Mode) (*AlignedImage, error) {
	switch mode {
	case ModeScan:
		return passthrough(img, true), nil

	case ModePhoto:
		warped, ok := s.Rectify(img)
		if !ok {
			return nil, ErrWarpFailed
		}
		return passthrough(warped, true), nil

	case ModeAuto:
		warped, ok := s.Rectify(img)
		if !ok {
			return passthrough(img, false), nil
		}
		return passthrough(warped, true), nil

	default:
		return nil, fmt.Errorf("unknown capture mode %q", mode)
	}
}

func passthrough(img image.Image, aligned bool) *AlignedImage {
	b := img.Bounds()
	return &AlignedImage{
		Image:   img,
		Width:   b.Dx(),
		Height:  b.Dy(),
		Aligned: aligned,
	}
}
