// Package extract classifies bubble fills on an aligned sheet image.
//
// The engine walks mapped regions of interest — one per answer choice, one
// per identifier digit bubble — and asks a pluggable Scorer how filled each
// region is. Classification over those fill scores is pure threshold
// policy: blank, multi-mark, ambiguous, ok, or low confidence, with an
// error status reserved for scorer failures (an unreadable region never
// aborts the rest of the sheet).
//
// The engine judges and extracts only. Comparing answers against a key,
// scoring, and student matching happen downstream.
//
// # Fill scores
//
// A fill score is a value in [0,1]: the scorer's confidence that the
// region is marked. The default OtsuScorer computes the dark-pixel ratio
// after Otsu thresholding, which adapts to exposure differences between
// scanners and cameras. Confidence reported per answer or digit is the
// winning candidate's raw fill score, not re-normalized across candidates.
package extract
