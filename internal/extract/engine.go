package extract

import (
	"image"
	"sort"

	"github.com/ironsheep/sheetscan/internal/imaging"
	"github.com/ironsheep/sheetscan/internal/roimap"
)

// ResultVersion tags extraction payloads on the wire.
const ResultVersion = "v1"

// Engine classifies mapped regions against a pluggable scorer. It holds no
// cross-call state and is safe for concurrent use.
type Engine struct {
	scorer   Scorer
	cfg      Config
	identCfg IdentifierConfig
}

// NewEngine builds an extraction engine.
func NewEngine(scorer Scorer, cfg Config, identCfg IdentifierConfig) *Engine {
	return &Engine{scorer: scorer, cfg: cfg, identCfg: identCfg}
}

// ExtractAnswers classifies every mapped question on the aligned image.
//
// A scorer failure on one question marks that question status=error with
// zero confidence and extraction continues; the batch never aborts.
func (e *Engine) ExtractAnswers(img image.Image, questions []roimap.Question) []AnswerResult {
	out := make([]AnswerResult, 0, len(questions))
	for _, q := range questions {
		out = append(out, e.extractAnswer(img, q))
	}
	return out
}

func (e *Engine) extractAnswer(img image.Image, q roimap.Question) AnswerResult {
	boxes := imaging.SplitROI(q.ROI, len(q.Choices), "x")

	marks := make([]Mark, 0, len(q.Choices))
	for i, box := range boxes {
		roi, err := imaging.CropROI(img, box)
		if err != nil {
			return errorAnswer(q.QuestionNumber)
		}
		fill, err := e.scorer.Score(roi)
		if err != nil {
			return errorAnswer(q.QuestionNumber)
		}
		marks = append(marks, Mark{Symbol: q.Choices[i], Fill: fill})
	}

	sort.SliceStable(marks, func(i, j int) bool { return marks[i].Fill > marks[j].Fill })

	top := marks[0]
	var second Mark
	if len(marks) > 1 {
		second = marks[1]
	}

	// Blank: even the best choice is barely darker than paper.
	if top.Fill < e.cfg.BlankThreshold {
		return AnswerResult{
			QuestionNumber: q.QuestionNumber,
			Detected:       []string{},
			Marking:        MarkingBlank,
			Confidence:     0,
			Status:         StatusBlank,
			Marks:          marks,
		}
	}

	// Multi: two or more strong fills.
	var high []string
	for _, m := range marks {
		if m.Fill >= e.cfg.MultiThreshold {
			high = append(high, m.Symbol)
		}
	}
	if len(high) >= 2 {
		return AnswerResult{
			QuestionNumber: q.QuestionNumber,
			Detected:       high,
			Marking:        MarkingMulti,
			Confidence:     top.Fill,
			Status:         StatusAmbiguous,
			Marks:          marks,
		}
	}

	// Ambiguous: the winner does not clear the runner-up.
	if top.Fill-second.Fill < e.cfg.ConfGapThreshold {
		return AnswerResult{
			QuestionNumber: q.QuestionNumber,
			Detected:       []string{top.Symbol},
			Marking:        MarkingSingle,
			Confidence:     top.Fill,
			Status:         StatusAmbiguous,
			Marks:          marks,
		}
	}

	status := StatusOK
	if top.Fill < e.cfg.LowConfidenceThreshold {
		status = StatusLowConfidence
	}
	return AnswerResult{
		QuestionNumber: q.QuestionNumber,
		Detected:       []string{top.Symbol},
		Marking:        MarkingSingle,
		Confidence:     top.Fill,
		Status:         status,
		Marks:          marks,
	}
}

func errorAnswer(questionNumber int) AnswerResult {
	return AnswerResult{
		QuestionNumber: questionNumber,
		Detected:       []string{},
		Marking:        MarkingBlank,
		Confidence:     0,
		Status:         StatusError,
	}
}
