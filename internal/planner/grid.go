package planner

import (
	"field-planner/internal/geometry"
)

// FruitOracle answers whether standing crop occupies the width-wide square
// around a sample location. Coordinates are in the caller's world convention.
// Implementations must be safe for concurrent queries and side-effect free
// from the planner's point of view.
type FruitOracle interface {
	HasFruit(x, y, width float64) bool
}

// OracleFunc adapts a plain function to the FruitOracle interface.
type OracleFunc func(x, y, width float64) bool

// HasFruit calls f(x, y, width).
func (f OracleFunc) HasFruit(x, y, width float64) bool { return f(x, y, width) }

// BuildGrid samples the polygon interior on horizontal scan-lines spaced
// `width` apart and returns the resulting graph. Samples step `width` along
// each line and are accepted only when they sit strictly inside a boundary
// crossing pair with width/2 clearance on each side, which keeps the full
// implement width inside the field. The oracle is queried once per accepted
// sample, in world coordinates.
//
// Column numbers advance with every tested sample position whether or not it
// was accepted, so a column index always maps to the same x across all rows
// and neighbor arithmetic on adjacent columns stays valid across gaps. An
// empty result (flat or degenerate polygon) is a normal outcome.
func BuildGrid(field geometry.Polygon, width float64, oracle FruitOracle) *Graph {
	g := &Graph{
		Spacing: width,
		cells:   make(map[Cell]int),
	}

	tracks := geometry.ParallelTracks(field, width)
	if len(tracks) == 0 {
		return g
	}
	g.Cols = int(tracks[0].Length() / width)

	for t, track := range tracks {
		row := t + 1
		for col := 1; ; col++ {
			x := track.From.X + float64(col)*width
			if x > track.To.X {
				break
			}
			if !insideCrossings(track.Crossings, x, width/2) {
				continue
			}

			pos := geometry.Point{X: x, Y: track.From.Y}
			world := geometry.ToWorld(pos)
			cell := Cell{Row: row, Col: col}

			g.cells[cell] = len(g.Nodes)
			g.Nodes = append(g.Nodes, Node{
				Pos:        pos,
				Obstructed: oracle.HasFruit(world.X, world.Y, width),
				OnGrid:     true,
				Cell:       cell,
			})
		}
	}
	return g
}

// insideCrossings reports whether x lies strictly inside any consecutive
// crossing pair with the given margin on both sides. Crossing pairs bound the
// polygon interior along a scan-line; a trailing unpaired crossing is ignored.
func insideCrossings(crossings []geometry.Point, x, margin float64) bool {
	for j := 0; j+1 < len(crossings); j += 2 {
		if x > crossings[j].X+margin && x < crossings[j+1].X-margin {
			return true
		}
	}
	return false
}
