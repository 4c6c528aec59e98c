// Package align produces a pixel image whose full extent corresponds 1:1
// to the blueprint's physical page.
//
// Three capture modes are supported:
//
//   - scan: the document is assumed to already fill the frame; the input
//     passes through unchanged and is reported as aligned
//   - photo: perspective rectification is mandatory; if the document
//     outline cannot be found the whole extraction fails, because a
//     photographed sheet without rectification cannot be trusted
//     geometrically
//   - auto: rectification is attempted; on failure the input passes
//     through like scan but is reported as not aligned, trading geometric
//     certainty for availability
//
// Downstream consumers must treat a not-aligned result as a reduced-trust
// signal for manual review routing.
package align
