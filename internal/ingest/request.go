package ingest

import (
	"errors"
	"fmt"

	"github.com/ironsheep/sheetscan/internal/extract"
)

// Worker outcome statuses accepted on the wire.
const (
	ResultDone   = "DONE"
	ResultFailed = "FAILED"
)

// Next actions returned to the caller.
const (
	NextGradeAsync   = "grade_async_in_results"
	NextGradeNow     = "grade_now"
	NextManualReview = "manual_review"
)

// ErrInvalidRequest is wrapped by all request validation failures.
var ErrInvalidRequest = errors.New("invalid ingest request")

// TemplateInfo identifies the blueprint the worker extracted against. It
// is part of the idempotency identity of a delivery: re-sends carry the
// same template tuple.
type TemplateInfo struct {
	Version       string `json:"version"`
	QuestionCount int    `json:"question_count"`
}

// InputInfo describes how the sheet image was processed.
type InputInfo struct {
	Mode    string `json:"mode"`
	Aligned bool   `json:"aligned"`
}

// ExtractedPayload carries the classification output for a DONE result.
type ExtractedPayload struct {
	Identifier *extract.IdentifierResult `json:"identifier"`
	Answers    []extract.AnswerResult    `json:"answers"`
}

// DebugInfo is non-semantic provenance kept for operations.
type DebugInfo struct {
	MetaUsed      bool   `json:"meta_used"`
	WorkerVersion string `json:"worker_version,omitempty"`
}

// Request is one worker result delivery.
type Request struct {
	SubmissionID uint              `json:"submission_id"`
	Status       string            `json:"status"`
	Error        string            `json:"error,omitempty"`
	Template     TemplateInfo      `json:"template"`
	Input        InputInfo         `json:"input"`
	Extracted    *ExtractedPayload `json:"extracted,omitempty"`
	Debug        DebugInfo         `json:"debug"`
}

// Validate rejects structurally unusable deliveries before any state is
// touched.
func (r *Request) Validate() error {
	if r.SubmissionID == 0 {
		return fmt.Errorf("%w: submission_id is required", ErrInvalidRequest)
	}
	switch r.Status {
	case ResultDone, ResultFailed:
	default:
		return fmt.Errorf("%w: status must be %s or %s, got %q", ErrInvalidRequest, ResultDone, ResultFailed, r.Status)
	}
	if r.Template.Version == "" {
		return fmt.Errorf("%w: template.version is required", ErrInvalidRequest)
	}
	if r.Template.QuestionCount <= 0 {
		return fmt.Errorf("%w: template.question_count must be positive", ErrInvalidRequest)
	}
	if r.Status == ResultDone {
		if r.Extracted == nil {
			return fmt.Errorf("%w: DONE result without extracted payload", ErrInvalidRequest)
		}
		if got := len(r.Extracted.Answers); got != r.Template.QuestionCount {
			return fmt.Errorf("%w: extracted %d answers for a %d-question template", ErrInvalidRequest, got, r.Template.QuestionCount)
		}
	}
	if r.Status == ResultFailed && r.Error == "" {
		return fmt.Errorf("%w: FAILED result without an error message", ErrInvalidRequest)
	}
	return nil
}

// result assembles the audit copy of the extraction from the delivery.
func (r *Request) result() *extract.Result {
	if r.Extracted == nil {
		return nil
	}
	return &extract.Result{
		Version:    extract.ResultVersion,
		Mode:       r.Input.Mode,
		Aligned:    r.Input.Aligned,
		Identifier: r.Extracted.Identifier,
		Answers:    r.Extracted.Answers,
	}
}

// Response acknowledges an accepted delivery and tells the caller what
// happens to the submission next.
type Response struct {
	Status       string `json:"status"`
	Accepted     bool   `json:"accepted"`
	SubmissionID uint   `json:"submission_id"`
	NextAction   string `json:"next_action"`
}
