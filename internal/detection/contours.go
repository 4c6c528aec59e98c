package detection

import "sort"

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Contour is a connected group of edge pixels.
type Contour []Point

// BoundsArea returns the area of the contour's axis-aligned bounding box.
// Used to rank candidate document outlines by size.
func (c Contour) BoundsArea() int {
	if len(c) == 0 {
		return 0
	}
	minX, minY := c[0].X, c[0].Y
	maxX, maxY := c[0].X, c[0].Y
	for _, p := range c[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return (maxX - minX) * (maxY - minY)
}

// FindContours finds connected components (contours) in a binary edge map
// indexed [y][x], sorted by bounding-box area descending.
//
// Uses flood-fill with 8-connectivity (includes diagonals). Contours
// smaller than minSize pixels are discarded as noise.
func FindContours(edges [][]bool, minSize int) []Contour {
	height := len(edges)
	if height == 0 {
		return nil
	}
	width := len(edges[0])

	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		visited[y] = make([]bool, width)
	}

	var contours []Contour
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges[y][x] && !visited[y][x] {
				contour := floodFill(edges, visited, x, y, width, height)
				if len(contour) >= minSize {
					contours = append(contours, contour)
				}
			}
		}
	}

	sort.Slice(contours, func(i, j int) bool {
		return contours[i].BoundsArea() > contours[j].BoundsArea()
	})
	return contours
}

// floodFill performs iterative flood-fill from a starting point.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow on
// large contours. Marks visited pixels and collects them into the contour.
func floodFill(edges, visited [][]bool, startX, startY, width, height int) Contour {
	contour := make(Contour, 0, 64)
	stack := []Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !edges[p.Y][p.X] {
			continue
		}

		visited[p.Y][p.X] = true
		contour = append(contour, p)

		// 8-connected neighbors
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return contour
}
