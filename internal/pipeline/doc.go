// Package pipeline runs extraction jobs end to end: blueprint lookup,
// alignment, region mapping, mark classification, and result delivery to
// the ingestor.
//
// Delivery from a Source is at-least-once. The pipeline never tries to be
// exactly-once; it leans on the ingestor's idempotency instead, so a
// redelivered job is simply processed again.
//
// Job failures are results, not errors: a sheet that cannot be processed
// produces a FAILED delivery with a reason, and the submission routes to
// manual review. Process only returns an error when the result could not
// be delivered at all, which is the one case worth redelivering.
package pipeline
