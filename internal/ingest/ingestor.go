package ingest

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ironsheep/sheetscan/internal/extract"
	"github.com/ironsheep/sheetscan/internal/review"
	"github.com/ironsheep/sheetscan/internal/store"
)

// Ingestor applies worker deliveries to the datastore.
type Ingestor struct {
	store     store.Interface
	policy    review.Policy
	gradeSync bool
	log       *slog.Logger
}

// New builds an ingestor. gradeSync selects grade_now over
// grade_async_in_results for clean results.
func New(ds store.Interface, policy review.Policy, gradeSync bool, log *slog.Logger) *Ingestor {
	if log == nil {
		log = slog.Default()
	}
	return &Ingestor{store: ds, policy: policy, gradeSync: gradeSync, log: log}
}

// Ingest applies one delivery atomically under the submission lock.
//
// Every accepted delivery refreshes the audit record, even failures and
// late duplicates. Status transitions are one-way: DONE is terminal, and
// a duplicate delivery against a DONE submission updates nothing but the
// audit trail.
func (in *Ingestor) Ingest(ctx context.Context, req *Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var next string
	err := in.store.WithSubmission(ctx, req.SubmissionID, func(tx *gorm.DB, sub *store.Submission) error {
		now := time.Now().UTC()
		terminal := sub.Status == store.StatusDone

		sub.Meta.AIResult = &store.AIResultRecord{
			Status:     req.Status,
			Result:     req.result(),
			Error:      req.Error,
			ReceivedAt: now,
			Kind:       "omr_scan",
		}

		if req.Status == ResultFailed {
			if !terminal {
				sub.Status = store.StatusFailed
				sub.ErrorMessage = req.Error
			}
			next = NextManualReview
			return nil
		}

		result := req.result()

		sub.Meta.OMR = &store.OMRRecord{
			Identifier:        result.Identifier,
			LastResultVersion: result.Version,
			LastMode:          result.Mode,
			MetaUsed:          req.Debug.MetaUsed,
		}

		for i := range result.Answers {
			a := &result.Answers[i]
			ans := &store.SubmissionAnswer{
				SubmissionID:   sub.ID,
				QuestionNumber: a.QuestionNumber,
				Answer:         strings.Join(a.Detected, ""),
				Marking:        string(a.Marking),
				Confidence:     a.Confidence,
				Status:         string(a.Status),
			}
			if err := in.store.UpsertAnswer(tx, ans); err != nil {
				return err
			}
		}

		target, enrollmentID, err := in.resolveAttribution(tx, result.Identifier)
		if err != nil {
			return err
		}

		decision := review.Evaluate(result, in.policy)
		sub.Meta.ManualReview = &store.ManualReviewRecord{
			Required:  decision.Required,
			Reasons:   decision.Reasons,
			UpdatedAt: now,
		}

		if !terminal {
			sub.Status = target
			sub.EnrollmentID = enrollmentID
			sub.ErrorMessage = ""
		}

		next = in.nextAction(target, decision)
		return nil
	})
	if err != nil {
		return nil, err
	}

	in.log.Info("result ingested",
		"submission_id", req.SubmissionID,
		"result_status", req.Status,
		"next_action", next)

	return &Response{
		Status:       "ok",
		Accepted:     true,
		SubmissionID: req.SubmissionID,
		NextAction:   next,
	}, nil
}

// resolveAttribution maps the extracted identifier to an enrollment. A
// missing or unresolvable identifier routes the submission to
// NEEDS_IDENTIFICATION rather than failing the delivery.
func (in *Ingestor) resolveAttribution(tx *gorm.DB, id *extract.IdentifierResult) (store.SubmissionStatus, *uint, error) {
	if id == nil || id.Identifier == nil {
		return store.StatusNeedsIdentification, nil, nil
	}
	enrollment, err := in.store.FindEnrollmentByIdentifier(tx, *id.Identifier)
	if err != nil {
		return "", nil, err
	}
	if enrollment == nil {
		return store.StatusNeedsIdentification, nil, nil
	}
	return store.StatusAnswersReady, &enrollment.ID, nil
}

func (in *Ingestor) nextAction(target store.SubmissionStatus, decision review.Decision) string {
	if decision.Required || target == store.StatusNeedsIdentification {
		return NextManualReview
	}
	if in.gradeSync {
		return NextGradeNow
	}
	return NextGradeAsync
}
