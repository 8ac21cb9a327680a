// Package planner turns a field polygon with crop obstacles into a graph
// search problem: it samples the polygon interior on a scan-line lattice,
// splices arbitrary start and goal points into the sampled graph, and runs
// best-first search over the result.
package planner

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"field-planner/internal/geometry"
)

// Cell is a 1-based (row, column) lattice coordinate. Rows number scan-lines
// bottom-up, columns number sample positions left to right. The zero Cell is
// never a real coordinate, so it can mark "not on the lattice".
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Node is one graph vertex. Lattice nodes carry a Cell and resolve their
// neighbors algebraically; injected nodes (start, goal) carry explicit Links
// recorded when they were spliced in. A lattice node can carry both once an
// injected node has linked back to it.
type Node struct {
	Pos        geometry.Point `json:"pos"`
	Obstructed bool           `json:"obstructed"`
	OnGrid     bool           `json:"onGrid"`
	Cell       Cell           `json:"cell"`
	Links      []int          `json:"links,omitempty"`
}

// Graph is the node arena for a single planning request. Nodes is append-only
// and indices are stable; cells maps lattice coordinates to node indices for
// O(1) neighbor resolution. Checks counts validity-predicate evaluations for
// this request.
type Graph struct {
	Nodes   []Node  `json:"nodes"`
	Spacing float64 `json:"spacing"`
	Cols    int     `json:"cols"`
	Checks  int     `json:"checks"`

	cells map[Cell]int
}

// Neighbors returns the candidate neighbor indices of node i: the occupants
// of the 8 surrounding lattice cells plus the node's explicit links, both
// filtered for obstruction. Obstructed nodes stay in the arena as cell
// placeholders, they are just never offered.
func (g *Graph) Neighbors(i int) []int {
	n := g.Nodes[i]
	var out []int

	if n.OnGrid {
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dr == 0 && dc == 0 {
					continue
				}
				j, ok := g.cells[Cell{Row: n.Cell.Row + dr, Col: n.Cell.Col + dc}]
				if ok && !g.Nodes[j].Obstructed {
					out = append(out, j)
				}
			}
		}
	}

	for _, j := range n.Links {
		if !g.Nodes[j].Obstructed {
			out = append(out, j)
		}
	}
	return out
}

// IsValidNeighbor reports whether the move from node `from` to candidate
// node `to` is admissible. The search algorithm confirms every expansion
// through this predicate.
func (g *Graph) IsValidNeighbor(from, to int) bool {
	return g.validPair(g.Nodes[from].Pos, g.Nodes[to])
}

// validPair is the admission test shared by Splice and IsValidNeighbor: the
// candidate must be strictly closer than 1.5 spacings (covers the diagonal
// lattice step with slack) and unobstructed. The node the move starts from is
// not re-checked; obstruction is enforced at the point a node is offered as a
// candidate. Every evaluation is counted in Checks.
func (g *Graph) validPair(from geometry.Point, candidate Node) bool {
	g.Checks++
	return from.Distance(candidate.Pos) < 1.5*g.Spacing && !candidate.Obstructed
}

// Splice inserts an off-lattice point into the graph and returns its index.
// Every existing node that passes the admission test is linked to the new
// node in both directions. The links are recorded against the index the node
// will occupy, then the node is appended, so earlier indices never move and
// a previously spliced node (the start) is visible to a later one (the goal).
func (g *Graph) Splice(pt geometry.Point) int {
	idx := len(g.Nodes)
	node := Node{Pos: pt}

	for i := range g.Nodes {
		if !g.validPair(pt, g.Nodes[i]) {
			continue
		}
		g.Nodes[i].Links = append(g.Nodes[i].Links, idx)
		node.Links = append(node.Links, i)
	}

	g.Nodes = append(g.Nodes, node)
	return idx
}

// stepCost prices a move between two nodes by Euclidean distance. Doubles as
// the search heuristic, which keeps it admissible.
func (g *Graph) stepCost(a, b int) float64 {
	return g.Nodes[a].Pos.Distance(g.Nodes[b].Pos)
}

// LineStrings returns every graph edge once as a two-point segment, for
// visualization. Neighbor relations are bidirectional, so each unordered
// index pair is emitted a single time.
func (g *Graph) LineStrings() [][]geometry.Point {
	lines := make([][]geometry.Point, 0)
	seen := make(map[[2]int]bool)

	for i := range g.Nodes {
		for _, j := range g.Neighbors(i) {
			key := [2]int{i, j}
			if j < i {
				key = [2]int{j, i}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			lines = append(lines, []geometry.Point{g.Nodes[i].Pos, g.Nodes[j].Pos})
		}
	}
	return lines
}

// SaveGraph serializes the graph to an indented JSON file.
func SaveGraph(g *Graph, filename string) error {
	log.Printf("💾 Saving planning graph to %s...\n", filename)

	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	log.Printf("   ✅ Graph saved (%d bytes)\n", len(data))
	return nil
}
