// Package detection locates the document outline in a captured image.
//
// The alignment stage needs the four corners of the photographed page
// before it can rectify the perspective. This package supplies the pieces:
// contour extraction over a binary edge map, convex hulls, closed-polygon
// simplification, and deterministic corner ordering.
//
// # Pipeline
//
//  1. Contour Finding: flood-fill groups connected edge pixels into
//     contours (8-connected)
//  2. Candidate Ranking: contours are sorted by bounding-box area,
//     largest first, and only the top few are examined
//  3. Polygon Approximation: each candidate's convex hull is simplified
//     with Douglas-Peucker at a tolerance of 2% of the hull perimeter;
//     the first candidate that reduces to exactly four vertices wins
//  4. Corner Ordering: the four corners are ordered top-left, top-right,
//     bottom-right, bottom-left using coordinate sums and differences
//
// Largest area takes priority over best fit: on a desk photo the page is
// almost always the biggest quadrilateral in frame, and preferring it keeps
// the behavior predictable when furniture edges also form quads.
//
// # Coordinate System
//
// All coordinates use the standard image convention: origin (0,0) at the
// top-left corner, X increasing rightward, Y increasing downward.
package detection
