// Package ingest applies worker extraction results to submissions.
//
// Ingest is the single writer of submission state in this system. It is
// idempotent: the same result delivered twice leaves the database exactly
// as one delivery would, because answers are upserted by question number
// and the status machine never runs backwards. A submission that reached
// DONE (graded) stays DONE no matter what arrives afterwards; late or
// duplicate deliveries still refresh the audit record.
package ingest
