package geometry

import "sort"

// Track is one horizontal scan-line swept across a field polygon. From and To
// span the polygon's full bounding-box width so sample columns line up
// vertically across tracks; Crossings holds the boundary intersection points
// on the line, ordered by X. Consecutive crossing pairs bound the interior.
type Track struct {
	From      Point   `json:"from"`
	To        Point   `json:"to"`
	Crossings []Point `json:"crossings"`
}

// Length returns the X extent of the track.
func (t Track) Length() float64 {
	return t.To.X - t.From.X
}

// ParallelTracks sweeps horizontal scan-lines across the polygon, spaced
// `spacing` apart, the first one spacing/2 above the bottom of the bounding
// box. Returns nil when the polygon is too flat for even one line, which the
// caller treats as "no interior to sample".
func ParallelTracks(poly Polygon, spacing float64) []Track {
	if len(poly.Vertices) < 3 || spacing <= 0 {
		return nil
	}

	box := poly.Bound()
	var tracks []Track
	for i := 0; ; i++ {
		y := box.MinY + spacing/2 + float64(i)*spacing
		if y > box.MaxY {
			break
		}
		tracks = append(tracks, Track{
			From:      Point{X: box.MinX, Y: y},
			To:        Point{X: box.MaxX, Y: y},
			Crossings: lineCrossings(poly, y),
		})
	}
	return tracks
}

// lineCrossings intersects the horizontal line at the given y with every
// polygon edge. The half-open test (Start.Y > y) != (End.Y > y) counts an
// edge once even when the line passes exactly through a shared vertex.
func lineCrossings(poly Polygon, y float64) []Point {
	var xs []float64
	for _, e := range poly.Edges() {
		if (e.Start.Y > y) != (e.End.Y > y) {
			t := (y - e.Start.Y) / (e.End.Y - e.Start.Y)
			xs = append(xs, e.Start.X+t*(e.End.X-e.Start.X))
		}
	}
	sort.Float64s(xs)

	crossings := make([]Point, len(xs))
	for i, x := range xs {
		crossings[i] = Point{X: x, Y: y}
	}
	return crossings
}
