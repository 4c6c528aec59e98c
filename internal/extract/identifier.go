package extract

import (
	"image"
	"sort"
	"strconv"
	"strings"

	"github.com/ironsheep/sheetscan/internal/imaging"
	"github.com/ironsheep/sheetscan/internal/roimap"
)

// ExtractIdentifier classifies the identifier bubble grid and assembles
// the 8-digit identifier.
//
// The identifier string is non-nil only when every digit is individually
// ok. RawIdentifier keeps the best guess with "?" for unreadable digits.
// The overall status is the worst digit status present, and the overall
// confidence is the mean of the scored digits' confidences.
//
// Returns a status=error result when no bubbles were mapped (legacy
// blueprints carry no identifier layout).
func (e *Engine) ExtractIdentifier(img image.Image, bubbles []roimap.Bubble) *IdentifierResult {
	if len(bubbles) == 0 {
		return &IdentifierResult{Status: StatusError, Digits: []DigitResult{}}
	}

	byDigit := make(map[int][]roimap.Bubble)
	for _, b := range bubbles {
		if b.DigitIndex <= 0 {
			continue
		}
		byDigit[b.DigitIndex] = append(byDigit[b.DigitIndex], b)
	}

	indexes := make([]int, 0, len(byDigit))
	for di := range byDigit {
		indexes = append(indexes, di)
	}
	sort.Ints(indexes)

	digits := make([]DigitResult, 0, len(indexes))
	var raw strings.Builder
	rollup := StatusOK
	var confidences []float64

	for _, di := range indexes {
		d := e.extractDigit(img, di, byDigit[di])
		digits = append(digits, d)
		rollup = worstStatus(rollup, d.Status)

		switch d.Status {
		case StatusOK, StatusAmbiguous:
			raw.WriteString(strconv.Itoa(*d.Value))
			confidences = append(confidences, d.Confidence)
		default:
			raw.WriteString("?")
		}
	}

	rawID := raw.String()

	var identifier *string
	if allOK(digits) {
		identifier = &rawID
	}

	var conf float64
	if len(confidences) > 0 {
		for _, c := range confidences {
			conf += c
		}
		conf /= float64(len(confidences))
	}

	return &IdentifierResult{
		Identifier:    identifier,
		RawIdentifier: rawID,
		Confidence:    conf,
		Status:        rollup,
		Digits:        digits,
	}
}

func (e *Engine) extractDigit(img image.Image, digitIndex int, bubbles []roimap.Bubble) DigitResult {
	marks := make([]Mark, 0, len(bubbles))
	values := make(map[string]int, len(bubbles))

	for _, b := range bubbles {
		roi, err := imaging.CropROI(img, b.ROI)
		if err != nil {
			return errorDigit(digitIndex)
		}
		fill, err := e.scorer.Score(roi)
		if err != nil {
			return errorDigit(digitIndex)
		}
		sym := strconv.Itoa(b.Number)
		marks = append(marks, Mark{Symbol: sym, Fill: fill})
		values[sym] = b.Number
	}
	if len(marks) == 0 {
		return errorDigit(digitIndex)
	}

	sort.SliceStable(marks, func(i, j int) bool { return marks[i].Fill > marks[j].Fill })

	top := marks[0]
	var second Mark
	if len(marks) > 1 {
		second = marks[1]
	}

	if top.Fill < e.identCfg.BlankThreshold {
		return DigitResult{
			DigitIndex: digitIndex,
			Value:      nil,
			Status:     StatusBlank,
			Confidence: 0,
			Marks:      marks,
		}
	}

	value := values[top.Symbol]
	status := StatusOK
	if top.Fill-second.Fill < e.identCfg.ConfGapThreshold {
		status = StatusAmbiguous
	}

	return DigitResult{
		DigitIndex: digitIndex,
		Value:      &value,
		Status:     status,
		Confidence: top.Fill,
		Marks:      marks,
	}
}

func errorDigit(digitIndex int) DigitResult {
	return DigitResult{
		DigitIndex: digitIndex,
		Value:      nil,
		Status:     StatusError,
		Confidence: 0,
	}
}

func allOK(digits []DigitResult) bool {
	if len(digits) == 0 {
		return false
	}
	for _, d := range digits {
		if d.Status != StatusOK {
			return false
		}
	}
	return true
}
