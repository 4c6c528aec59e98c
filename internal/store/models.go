package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ironsheep/sheetscan/internal/extract"
)

// SubmissionStatus is the submission lifecycle state.
type SubmissionStatus string

const (
	StatusPending             SubmissionStatus = "PENDING"
	StatusNeedsIdentification SubmissionStatus = "NEEDS_IDENTIFICATION"
	StatusAnswersReady        SubmissionStatus = "ANSWERS_READY"
	StatusFailed              SubmissionStatus = "FAILED"
	StatusDone                SubmissionStatus = "DONE"
)

// AIResultRecord is the audit copy of the last raw extraction applied to a
// submission. It is always recorded, even on failure paths.
type AIResultRecord struct {
	Status     string          `json:"status"` // DONE or FAILED
	Result     *extract.Result `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
	Kind       string          `json:"kind"` // always "omr_scan" in this core
}

// ManualReviewRecord is the operator escalation flag on a submission.
type ManualReviewRecord struct {
	Required  bool      `json:"required"`
	Reasons   []string  `json:"reasons"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OMRRecord keeps sheet-level extraction context for operations screens.
type OMRRecord struct {
	Identifier        *extract.IdentifierResult `json:"identifier,omitempty"`
	LastResultVersion string                    `json:"last_result_version,omitempty"`
	LastMode          string                    `json:"last_mode,omitempty"`
	MetaUsed          bool                      `json:"meta_used"`
}

// SubmissionMeta is the structured meta document on a submission. Stored
// as a JSON column but typed end to end.
type SubmissionMeta struct {
	AIResult     *AIResultRecord     `json:"ai_result,omitempty"`
	OMR          *OMRRecord          `json:"omr,omitempty"`
	ManualReview *ManualReviewRecord `json:"manual_review,omitempty"`
}

// Value implements driver.Valuer so gorm stores the meta document as JSON.
func (m SubmissionMeta) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshaling submission meta: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *SubmissionMeta) Scan(value any) error {
	if value == nil {
		*m = SubmissionMeta{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("unsupported submission meta column type %T", value)
	}
	if len(data) == 0 {
		*m = SubmissionMeta{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Submission is one uploaded answer sheet working its way through the
// pipeline. Created by the upstream intake process; mutated exclusively by
// the result ingestor; never deleted here.
type Submission struct {
	ID           uint             `gorm:"primarykey"`
	Status       SubmissionStatus `gorm:"size:32;index"`
	EnrollmentID *uint
	Enrollment   *Enrollment
	ErrorMessage string
	Meta         SubmissionMeta `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SubmissionAnswer is one extracted answer, unique per
// (submission, question number) so re-ingestion upserts instead of
// duplicating.
type SubmissionAnswer struct {
	ID             uint   `gorm:"primarykey"`
	SubmissionID   uint   `gorm:"uniqueIndex:idx_submission_question;not null"`
	QuestionNumber int    `gorm:"uniqueIndex:idx_submission_question;not null"`
	Answer         string `gorm:"size:16"` // detected symbols joined, e.g. "B" or "BD"
	Marking        string `gorm:"size:16"`
	Confidence     float64
	Status         string `gorm:"size:24"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Enrollment maps an 8-digit sheet identifier to a known student
// enrollment. Maintained by administration outside this core; read-only
// here.
type Enrollment struct {
	ID          uint   `gorm:"primarykey"`
	Identifier  string `gorm:"size:16;uniqueIndex;not null"`
	DisplayName string `gorm:"size:128"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
