// Package store persists submissions, their extracted answers, and the
// enrollment directory used to attribute sheets to students.
//
// The submission row is the only mutable shared state in the pipeline.
// All read-modify-write sequences on a submission run through
// WithSubmission, which serializes concurrent writers per submission id
// (duplicate job delivery is expected) while leaving different submissions
// fully parallel. Answers are written as upserts keyed by
// (submission, question number), so re-applying the same extraction can
// never produce duplicate rows.
//
// Submission.Meta is a typed document, not a free-form map: the audit
// record of the last raw extraction and the manual-review flags keep their
// shape all the way into the database column.
package store
