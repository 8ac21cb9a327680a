// Package geometry holds the planar types and utilities the route planner
// works with: points, field polygons, scan-line tracks and course smoothing.
//
// Two coordinate conventions are in play. Callers (the vehicle side) use a
// world convention whose Y axis points the opposite way; everything inside
// the planner uses the internal convention. FromWorld and ToWorld translate
// between them.
package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance calculates Euclidean distance between two points.
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Heading returns the direction from p to other in radians, measured
// counterclockwise from the positive X axis.
func (p Point) Heading(other Point) float64 {
	return math.Atan2(other.Y-p.Y, other.X-p.X)
}

// Orb converts the point to its orb representation.
func (p Point) Orb() orb.Point {
	return orb.Point{p.X, p.Y}
}

// FromWorld converts a caller-convention point to the internal convention.
// The world Y axis is sign-flipped relative to the internal one.
func FromWorld(p Point) Point {
	return Point{X: p.X, Y: -p.Y}
}

// ToWorld converts an internal-convention point back to the caller convention.
func ToWorld(p Point) Point {
	return Point{X: p.X, Y: -p.Y}
}

// FromWorldPath converts a point sequence to the internal convention.
func FromWorldPath(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = FromWorld(p)
	}
	return out
}

// ToWorldPath converts a point sequence back to the caller convention.
func ToWorldPath(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = ToWorld(p)
	}
	return out
}

// LineSegment is a directed edge between two points.
type LineSegment struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Polygon is a closed, non-self-intersecting boundary given as an ordered
// vertex list. The closing edge from the last vertex back to the first is
// implicit.
type Polygon struct {
	Vertices []Point `json:"vertices"`
}

// Edges returns the polygon's edges in vertex order, including the implicit
// closing edge.
func (poly Polygon) Edges() []LineSegment {
	n := len(poly.Vertices)
	edges := make([]LineSegment, 0, n)
	for i := 0; i < n; i++ {
		edges = append(edges, LineSegment{
			Start: poly.Vertices[i],
			End:   poly.Vertices[(i+1)%n],
		})
	}
	return edges
}

// FromWorldPolygon converts a polygon to the internal convention.
func FromWorldPolygon(poly Polygon) Polygon {
	return Polygon{Vertices: FromWorldPath(poly.Vertices)}
}

// Ring converts the polygon to a closed orb ring.
func (poly Polygon) Ring() orb.Ring {
	ring := make(orb.Ring, 0, len(poly.Vertices)+1)
	for _, v := range poly.Vertices {
		ring = append(ring, v.Orb())
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}

// BoundingBox is the axis-aligned extent of a polygon.
type BoundingBox struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns the X extent of the box.
func (b BoundingBox) Width() float64 { return b.MaxX - b.MinX }

// Height returns the Y extent of the box.
func (b BoundingBox) Height() float64 { return b.MaxY - b.MinY }

// Bound computes the polygon's bounding box.
func (poly Polygon) Bound() BoundingBox {
	if len(poly.Vertices) == 0 {
		return BoundingBox{}
	}
	b := poly.Ring().Bound()
	return BoundingBox{
		MinX: b.Min.X(),
		MinY: b.Min.Y(),
		MaxX: b.Max.X(),
		MaxY: b.Max.Y(),
	}
}

// Area returns the unsigned planar area enclosed by the polygon.
func (poly Polygon) Area() float64 {
	if len(poly.Vertices) < 3 {
		return 0
	}
	return math.Abs(planar.Area(poly.Ring()))
}

// Contains reports whether the point lies inside the polygon. Points on the
// boundary count as inside.
func (poly Polygon) Contains(p Point) bool {
	if len(poly.Vertices) < 3 {
		return false
	}
	return planar.RingContains(poly.Ring(), p.Orb())
}
