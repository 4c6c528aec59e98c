package blueprint

import (
	"fmt"
)

// Version accepted by this engine. Templates with any other version are
// rejected rather than guessed at.
const Version = "objective_v1"

// Identifier layout cardinality, fixed for v1 sheets.
const (
	DigitCount      = 8
	ChoicesPerDigit = 10
)

// MMPoint is a point in millimeter page space.
type MMPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MMRect is a rectangle in millimeter page space.
type MMRect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// PageSize is the physical page extent in millimeters.
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Choice is one selectable answer bubble within a question ROI.
type Choice struct {
	Choice string  `json:"choice"` // e.g. "A".."E"
	Center MMPoint `json:"center"`
	Radius float64 `json:"radius"`
}

// Question describes one question's mark region.
type Question struct {
	QuestionNumber int      `json:"question_number"`
	ROI            MMRect   `json:"roi"`
	Choices        []Choice `json:"choices"`
}

// Bubble is one identifier digit bubble (digit position x candidate value).
type Bubble struct {
	DigitIndex int     `json:"digit_index"` // 1-based digit position
	Number     int     `json:"number"`      // candidate value 0..9
	Center     MMPoint `json:"center"`
	Radius     float64 `json:"r"`
}

// Identifier describes the 8-digit identifier grid.
type Identifier struct {
	DigitCount      int      `json:"digit_count"`
	ChoicesPerDigit int      `json:"choices_per_digit"`
	Bubbles         []Bubble `json:"bubbles"`
}

// Blueprint is a millimeter-space description of one bubble-sheet template.
// Immutable once fetched for a given question count.
type Blueprint struct {
	Version       string      `json:"version"`
	Units         string      `json:"units"`
	QuestionCount int         `json:"question_count"`
	Page          PageSize    `json:"page"`
	Identifier    *Identifier `json:"identifier,omitempty"`
	Questions     []Question  `json:"questions"`
}

// HasIdentifier reports whether the blueprint carries an identifier layout.
// Legacy-fallback blueprints do not.
func (b *Blueprint) HasIdentifier() bool {
	return b.Identifier != nil && len(b.Identifier.Bubbles) > 0
}

// Validate checks the structural invariants of a fetched blueprint.
func (b *Blueprint) Validate() error {
	if b.Version != Version {
		return &InvalidError{Reason: fmt.Sprintf("unsupported version %q", b.Version)}
	}
	if b.Units != "mm" {
		return &InvalidError{Reason: fmt.Sprintf("units must be mm, got %q", b.Units)}
	}
	if b.Page.Width <= 0 || b.Page.Height <= 0 {
		return &InvalidError{Reason: fmt.Sprintf("non-positive page size %gx%g", b.Page.Width, b.Page.Height)}
	}
	if len(b.Questions) != b.QuestionCount {
		return &InvalidError{Reason: fmt.Sprintf("question count mismatch: declared %d, got %d",
			b.QuestionCount, len(b.Questions))}
	}
	if b.Identifier != nil {
		want := b.Identifier.DigitCount * b.Identifier.ChoicesPerDigit
		if b.Identifier.DigitCount != DigitCount || b.Identifier.ChoicesPerDigit != ChoicesPerDigit {
			return &InvalidError{Reason: fmt.Sprintf("identifier layout %dx%d not supported",
				b.Identifier.DigitCount, b.Identifier.ChoicesPerDigit)}
		}
		if len(b.Identifier.Bubbles) != want {
			return &InvalidError{Reason: fmt.Sprintf("identifier bubble count mismatch: want %d, got %d",
				want, len(b.Identifier.Bubbles))}
		}
	}
	return nil
}

// FromLegacy builds a degraded blueprint from a caller-supplied question
// list. Units are forced to millimeters and no identifier layout is
// attached; question count follows the list length.
func FromLegacy(questions []Question, page PageSize) *Blueprint {
	return &Blueprint{
		Version:       Version,
		Units:         "mm",
		QuestionCount: len(questions),
		Page:          page,
		Questions:     questions,
	}
}
