// Package review decides whether a sheet's extraction needs a human.
//
// Evaluate is a pure function over an extraction result: no I/O, no
// mutation, and identical input always yields identical output. It exists
// so escalation policy can be tested in isolation from extraction and
// persistence.
package review

import (
	"sort"

	"github.com/ironsheep/sheetscan/internal/extract"
)

// Escalation reasons. Reasons returned by Evaluate are always drawn from
// this fixed set.
const (
	ReasonAnswerStatusNotOK   = "ANSWER_STATUS_NOT_OK"
	ReasonAnswerBlankOrMulti  = "ANSWER_BLANK_OR_MULTI"
	ReasonAnswerLowConfidence = "ANSWER_LOW_CONFIDENCE"
	ReasonIdentifierNotOK     = "IDENTIFIER_NOT_OK"
	ReasonNotAligned          = "NOT_ALIGNED"
	ReasonAggregateQuality    = "AGGREGATE_QUALITY"
)

// Policy holds the escalation thresholds. All values are overridable
// through configuration; the zero value is not meaningful, use
// DefaultPolicy.
type Policy struct {
	// ConfidenceFloor: any answer below this confidence flags review.
	ConfidenceFloor float64

	// Aggregate count rules: enough marginal answers flag review even
	// when each one individually would pass.
	MaxBlank         int
	MaxAmbiguous     int
	MaxLowConfidence int

	// AlignedFalseForcesReview controls whether a sheet that could not be
	// rectified always goes to review, or is merely reduced-trust. Kept
	// explicit because operations may prefer either.
	AlignedFalseForcesReview bool
}

// DefaultPolicy is the operating baseline.
func DefaultPolicy() Policy {
	return Policy{
		ConfidenceFloor:          0.70,
		MaxBlank:                 5,
		MaxAmbiguous:             3,
		MaxLowConfidence:         5,
		AlignedFalseForcesReview: true,
	}
}

// Decision is the review routing outcome. Reasons is deduplicated and
// sorted; Required is true iff at least one reason fired.
type Decision struct {
	Required bool     `json:"required"`
	Reasons  []string `json:"reasons"`
}

// Evaluate applies the escalation policy to an extraction result.
func Evaluate(result *extract.Result, policy Policy) Decision {
	reasons := make(map[string]struct{})

	var blanks, ambiguous, lowConfidence int
	for i := range result.Answers {
		a := &result.Answers[i]

		if a.Status != extract.StatusOK {
			reasons[ReasonAnswerStatusNotOK] = struct{}{}
		}
		if a.Marking == extract.MarkingBlank || a.Marking == extract.MarkingMulti {
			reasons[ReasonAnswerBlankOrMulti] = struct{}{}
		}
		if a.Confidence < policy.ConfidenceFloor {
			reasons[ReasonAnswerLowConfidence] = struct{}{}
		}

		switch a.Status {
		case extract.StatusBlank:
			blanks++
		case extract.StatusAmbiguous:
			ambiguous++
		case extract.StatusLowConfidence:
			lowConfidence++
		}
	}

	if identifierNotOK(result.Identifier) {
		reasons[ReasonIdentifierNotOK] = struct{}{}
	}

	if !result.Aligned && policy.AlignedFalseForcesReview {
		reasons[ReasonNotAligned] = struct{}{}
	}

	if blanks >= policy.MaxBlank || ambiguous >= policy.MaxAmbiguous || lowConfidence >= policy.MaxLowConfidence {
		reasons[ReasonAggregateQuality] = struct{}{}
	}

	out := make([]string, 0, len(reasons))
	for r := range reasons {
		out = append(out, r)
	}
	sort.Strings(out)

	return Decision{
		Required: len(out) > 0,
		Reasons:  out,
	}
}

// identifierNotOK treats a missing identifier result the same as a failed
// one: the sheet cannot be attributed without a human.
func identifierNotOK(id *extract.IdentifierResult) bool {
	if id == nil {
		return true
	}
	return id.Status != extract.StatusOK
}
