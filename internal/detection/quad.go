package detection

import (
	"math"
	"sort"
)

// quadCandidates is how many of the largest contours are examined for a
// four-vertex outline before giving up.
const quadCandidates = 8

// approxTolerance is the Douglas-Peucker tolerance as a fraction of the
// hull perimeter.
const approxTolerance = 0.02

// Quad is an ordered quadrilateral: top-left, top-right, bottom-right,
// bottom-left.
type Quad [4]Point

// FindDocumentQuad searches the largest contours for one that simplifies
// to a quadrilateral, which is taken to be the document outline.
//
// The first (largest) contour whose convex hull approximates to exactly
// four vertices wins; candidates beyond the top few are never examined.
// Returns false when no quadrilateral is found — the caller treats that
// uniformly as rectification failure.
func FindDocumentQuad(contours []Contour) (Quad, bool) {
	limit := len(contours)
	if limit > quadCandidates {
		limit = quadCandidates
	}

	for _, contour := range contours[:limit] {
		hull := convexHull(contour)
		if len(hull) < 4 {
			continue
		}
		peri := perimeter(hull)
		approx := approxPolygon(hull, approxTolerance*peri)
		if len(approx) == 4 {
			return OrderQuad(approx[0], approx[1], approx[2], approx[3]), true
		}
	}
	return Quad{}, false
}

// OrderQuad orders four corners deterministically by coordinate sums and
// differences. In image coordinates (Y down): the top-left corner has the
// minimal x+y, the bottom-right the maximal x+y, the top-right the maximal
// x-y, and the bottom-left the minimal x-y.
func OrderQuad(a, b, c, d Point) Quad {
	pts := [4]Point{a, b, c, d}

	var q Quad
	sumMin, sumMax := math.MaxInt32, math.MinInt32
	diffMin, diffMax := math.MaxInt32, math.MinInt32
	for _, p := range pts {
		sum := p.X + p.Y
		diff := p.X - p.Y
		if sum < sumMin {
			sumMin = sum
			q[0] = p // top-left
		}
		if sum > sumMax {
			sumMax = sum
			q[2] = p // bottom-right
		}
		if diff > diffMax {
			diffMax = diff
			q[1] = p // top-right
		}
		if diff < diffMin {
			diffMin = diff
			q[3] = p // bottom-left
		}
	}
	return q
}

// convexHull computes the convex hull of a point set using Andrew's
// monotone chain, returned in counter-clockwise order without the
// duplicated endpoint.
func convexHull(points []Point) []Point {
	if len(points) < 3 {
		return append([]Point(nil), points...)
	}

	pts := append([]Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	cross := func(o, a, b Point) int {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	var lower []Point
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper []Point
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// perimeter returns the closed-polygon perimeter.
func perimeter(poly []Point) float64 {
	var sum float64
	for i := range poly {
		sum += dist(poly[i], poly[(i+1)%len(poly)])
	}
	return sum
}

func dist(a, b Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// approxPolygon simplifies a closed polygon with the Douglas-Peucker
// algorithm at the given tolerance.
//
// The polygon is split at its two mutually farthest vertices, each open
// chain is simplified independently, and the halves are rejoined. For a
// page outline hull this collapses the near-collinear edge samples down to
// the four corners.
func approxPolygon(poly []Point, epsilon float64) []Point {
	n := len(poly)
	if n < 3 {
		return poly
	}

	// Find the two vertices farthest apart to split the ring.
	ai, bi := 0, 0
	var maxD float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if d := dist(poly[i], poly[j]); d > maxD {
				maxD = d
				ai, bi = i, j
			}
		}
	}

	chain1 := make([]Point, 0, n)
	for i := ai; ; i = (i + 1) % n {
		chain1 = append(chain1, poly[i])
		if i == bi {
			break
		}
	}
	chain2 := make([]Point, 0, n)
	for i := bi; ; i = (i + 1) % n {
		chain2 = append(chain2, poly[i])
		if i == ai {
			break
		}
	}

	s1 := douglasPeucker(chain1, epsilon)
	s2 := douglasPeucker(chain2, epsilon)

	// Each simplified chain includes both split vertices; drop the
	// duplicates when joining.
	out := append([]Point(nil), s1...)
	if len(s2) > 2 {
		out = append(out, s2[1:len(s2)-1]...)
	}
	return out
}

// douglasPeucker simplifies an open polyline, keeping endpoints.
func douglasPeucker(points []Point, epsilon float64) []Point {
	if len(points) < 3 {
		return points
	}

	var maxD float64
	index := 0
	last := len(points) - 1
	for i := 1; i < last; i++ {
		if d := perpDistance(points[i], points[0], points[last]); d > maxD {
			maxD = d
			index = i
		}
	}

	if maxD <= epsilon {
		return []Point{points[0], points[last]}
	}

	left := douglasPeucker(points[:index+1], epsilon)
	right := douglasPeucker(points[index:], epsilon)
	out := make([]Point, 0, len(left)+len(right)-1)
	out = append(out, left[:len(left)-1]...)
	return append(out, right...)
}

// perpDistance is the perpendicular distance from p to the line through a
// and b. Degenerates to point distance when a == b.
func perpDistance(p, a, b Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	norm := math.Sqrt(dx*dx + dy*dy)
	if norm == 0 {
		return dist(p, a)
	}
	return math.Abs(dy*float64(p.X)-dx*float64(p.Y)+float64(b.X)*float64(a.Y)-float64(b.Y)*float64(a.X)) / norm
}
