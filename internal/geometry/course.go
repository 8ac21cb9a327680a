package geometry

import "math"

const (
	// smoothMaxPasses caps corner cutting so a pathological zig-zag cannot
	// grow the point list without bound.
	smoothMaxPasses = 8

	// smoothShortCourse is the point count below which smoothing is skipped
	// unless the caller forces it.
	smoothShortCourse = 5

	// smoothPull is the Chaikin cut ratio: how far replacement points are
	// pulled from a sharp vertex toward its neighbors.
	smoothPull = 0.25
)

// Course is an ordered point sequence with cached aggregate geometry. The
// planner rebuilds one around every raw search result before smoothing it.
type Course struct {
	Points []Point `json:"points"`
	Length float64 `json:"length"`
}

// NewCourse builds a course from a point sequence and computes its aggregates.
func NewCourse(points []Point) *Course {
	c := &Course{Points: points}
	c.Recalculate()
	return c
}

// Recalculate refreshes the cached aggregates after Points changed.
func (c *Course) Recalculate() {
	c.Length = Length(c.Points)
}

// Length sums the segment distances of a point sequence.
func Length(points []Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += points[i-1].Distance(points[i])
	}
	return total
}

// MaxTurn returns the sharpest turn angle in radians over the interior
// vertices, 0 for courses with fewer than 3 points.
func (c *Course) MaxTurn() float64 {
	max := 0.0
	for i := 1; i < len(c.Points)-1; i++ {
		if turn := turnAngle(c.Points[i-1], c.Points[i], c.Points[i+1]); turn > max {
			max = turn
		}
	}
	return max
}

// Smooth rounds off corners sharper than maxAngle (radians) by cutting each
// offending vertex into two points pulled toward its neighbors. It always
// runs minPasses passes and keeps going while a turn above maxAngle remains,
// up to an internal cap. Short courses are left alone unless force is set.
// Endpoints never move.
func (c *Course) Smooth(maxAngle float64, minPasses int, force bool) {
	if len(c.Points) < 3 {
		return
	}
	if !force && len(c.Points) < smoothShortCourse {
		return
	}

	for pass := 0; pass < smoothMaxPasses; pass++ {
		if pass >= minPasses && c.MaxTurn() <= maxAngle {
			break
		}
		c.Points = cutCorners(c.Points, maxAngle)
	}
	c.Recalculate()
}

// cutCorners performs one selective Chaikin pass: vertices turning sharper
// than maxAngle are replaced by two points, one pulled toward each neighbor.
func cutCorners(points []Point, maxAngle float64) []Point {
	out := make([]Point, 0, len(points)+4)
	out = append(out, points[0])

	for i := 1; i < len(points)-1; i++ {
		prev := points[i-1]
		v := points[i]
		next := points[i+1]

		if turnAngle(prev, v, next) <= maxAngle {
			out = append(out, v)
			continue
		}
		out = append(out,
			Point{X: v.X + smoothPull*(prev.X-v.X), Y: v.Y + smoothPull*(prev.Y-v.Y)},
			Point{X: v.X + smoothPull*(next.X-v.X), Y: v.Y + smoothPull*(next.Y-v.Y)},
		)
	}

	out = append(out, points[len(points)-1])
	return out
}

// turnAngle measures the absolute change of travel direction at vertex v,
// normalized to [0, π].
func turnAngle(prev, v, next Point) float64 {
	d := v.Heading(next) - prev.Heading(v)
	return math.Abs(math.Atan2(math.Sin(d), math.Cos(d)))
}
