package extract

// Status classifies how trustworthy one extracted unit (answer or digit)
// is.
type Status string

const (
	StatusOK            Status = "ok"
	StatusBlank         Status = "blank"
	StatusAmbiguous     Status = "ambiguous"
	StatusLowConfidence Status = "low_confidence"
	StatusError         Status = "error"
)

// Marking describes the physical mark pattern found in a question region.
type Marking string

const (
	MarkingSingle Marking = "single"
	MarkingMulti  Marking = "multi"
	MarkingBlank  Marking = "blank"
)

// Mark is one candidate's fill score, kept for operational debugging.
type Mark struct {
	Symbol string  `json:"symbol"` // choice letter or digit value
	Fill   float64 `json:"fill"`
}

// AnswerResult is the classification of one question.
type AnswerResult struct {
	QuestionNumber int      `json:"question_number"`
	Detected       []string `json:"detected"`
	Marking        Marking  `json:"marking"`
	Confidence     float64  `json:"confidence"`
	Status         Status   `json:"status"`
	Marks          []Mark   `json:"marks,omitempty"`
}

// DigitResult is the classification of one identifier digit position.
type DigitResult struct {
	DigitIndex int     `json:"digit_index"`
	Value      *int    `json:"value"` // nil when blank or unreadable
	Status     Status  `json:"status"`
	Confidence float64 `json:"confidence"`
	Marks      []Mark  `json:"marks,omitempty"`
}

// IdentifierResult is the assembled 8-digit identifier extraction.
//
// Identifier is non-nil only when every digit is individually ok.
// RawIdentifier keeps the best-guess string with "?" placeholders for
// unreadable digits, for operational debugging and manual review.
type IdentifierResult struct {
	Identifier    *string       `json:"identifier"`
	RawIdentifier string        `json:"raw_identifier"`
	Confidence    float64       `json:"confidence"`
	Status        Status        `json:"status"`
	Digits        []DigitResult `json:"digits"`
}

// Result is the full extraction output for one sheet.
type Result struct {
	Version    string            `json:"version"`
	Mode       string            `json:"mode"`
	Aligned    bool              `json:"aligned"`
	Identifier *IdentifierResult `json:"identifier,omitempty"`
	Answers    []AnswerResult    `json:"answers"`
}

// worstStatus returns the more severe of two statuses with precedence
// error > blank > ambiguous > ok.
func worstStatus(a, b Status) Status {
	rank := map[Status]int{
		StatusOK:        0,
		StatusAmbiguous: 1,
		StatusBlank:     2,
		StatusError:     3,
	}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
