package geometry

import "math"

// Simplify reduces an open point sequence with the Douglas-Peucker algorithm.
// Endpoints are always kept.
func Simplify(points []Point, epsilon float64) []Point {
	if len(points) <= 2 || epsilon <= 0 {
		return points
	}
	return douglasPeucker(points, epsilon)
}

// SimplifyPolygon reduces polygon complexity using Douglas-Peucker. Closed
// rings (first vertex repeated at the end) are reopened for simplification
// and re-closed afterwards so the algorithm cannot collapse the seam.
func SimplifyPolygon(poly Polygon, epsilon float64) Polygon {
	if len(poly.Vertices) <= 3 || epsilon <= 0 {
		return poly
	}

	n := len(poly.Vertices)
	first := poly.Vertices[0]
	last := poly.Vertices[n-1]
	const closeThreshold = 1e-9
	isClosed := math.Abs(first.X-last.X) < closeThreshold && math.Abs(first.Y-last.Y) < closeThreshold

	if !isClosed {
		return Polygon{Vertices: douglasPeucker(poly.Vertices, epsilon)}
	}

	open := poly.Vertices[:n-1]
	simplified := douglasPeucker(append(append([]Point{}, open...), open[0]), epsilon)
	if len(simplified) < 4 {
		// Too aggressive for this ring, keep the original.
		return poly
	}
	return Polygon{Vertices: simplified}
}

// douglasPeucker implements the Douglas-Peucker line simplification algorithm
func douglasPeucker(points []Point, epsilon float64) []Point {
	if len(points) <= 2 {
		return points
	}

	// Find the point with maximum distance from line between first and last
	dmax := 0.0
	index := 0
	end := len(points) - 1

	for i := 1; i < end; i++ {
		d := perpendicularDistance(points[i], points[0], points[end])
		if d > dmax {
			index = i
			dmax = d
		}
	}

	if dmax > epsilon {
		left := douglasPeucker(points[0:index+1], epsilon)
		right := douglasPeucker(points[index:], epsilon)

		result := make([]Point, 0, len(left)+len(right)-1)
		result = append(result, left[:len(left)-1]...)
		result = append(result, right...)
		return result
	}

	// All points in between can be discarded
	return []Point{points[0], points[end]}
}

// perpendicularDistance calculates perpendicular distance from point to line
func perpendicularDistance(point, lineStart, lineEnd Point) float64 {
	dx := lineEnd.X - lineStart.X
	dy := lineEnd.Y - lineStart.Y

	mag := math.Sqrt(dx*dx + dy*dy)
	if mag > 0 {
		dx /= mag
		dy /= mag
	}

	pvx := point.X - lineStart.X
	pvy := point.Y - lineStart.Y

	pvdot := dx*pvx + dy*pvy

	ax := pvx - pvdot*dx
	ay := pvy - pvdot*dy

	return math.Sqrt(ax*ax + ay*ay)
}

// EstimateEpsilon suggests a simplification tolerance, in field units, for a
// batch of patch polygons. Conservative so patch outlines keep their shape;
// denser inputs tolerate a coarser epsilon.
func EstimateEpsilon(vertexCount int) float64 {
	switch {
	case vertexCount > 50000:
		return 2.0
	case vertexCount > 20000:
		return 1.0
	case vertexCount > 10000:
		return 0.7
	case vertexCount > 5000:
		return 0.5
	case vertexCount > 2000:
		return 0.3
	case vertexCount > 1000:
		return 0.2
	}
	return 0.1
}
