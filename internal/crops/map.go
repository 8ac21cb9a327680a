// Package crops implements the standing-crop oracles the route planner
// consults: a spatially indexed patch map fed from GeoJSON for live
// operation, and a deterministic pseudo-random stand-in for running without
// field data.
package crops

import (
	"sync"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"field-planner/internal/geometry"
)

// Patch is one contiguous region of standing crop.
type Patch struct {
	Crop   string           `json:"crop"`
	Bounds geometry.Polygon `json:"bounds"`
}

// entry wraps a patch for R-tree storage with its precomputed query shapes.
type entry struct {
	patch Patch
	bbox  rtreego.Rect
	ring  orb.Ring
}

// Bounds implements rtreego.Spatial.
func (e *entry) Bounds() rtreego.Rect { return e.bbox }

// Map answers crop queries against an R-tree of patches. Queries take a read
// lock only; Replace swaps the whole tree, so a reload never blocks planning
// for longer than a pointer swap.
type Map struct {
	mu    sync.RWMutex
	tree  *rtreego.Rtree
	count int
	area  float64
}

// NewMap builds a Map over the given patches.
func NewMap(patches []Patch) *Map {
	m := &Map{}
	m.Replace(patches)
	return m
}

// Replace rebuilds the index from a fresh patch set. Patches whose extent
// cannot form a valid R-tree rectangle are skipped.
func (m *Map) Replace(patches []Patch) {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node
	count := 0
	area := 0.0

	for _, p := range patches {
		rect, err := patchRect(p.Bounds)
		if err != nil {
			continue
		}
		tree.Insert(&entry{patch: p, bbox: rect, ring: p.Bounds.Ring()})
		count++
		area += p.Bounds.Area()
	}

	m.mu.Lock()
	m.tree = tree
	m.count = count
	m.area = area
	m.mu.Unlock()
}

// HasFruit reports whether any patch reaches into the width×width implement
// square centered on (x, y). The R-tree narrows the candidates by bounding
// box; candidates are then confirmed by probing the square's center and
// corners against the patch outline and by checking for patch corners inside
// the square.
func (m *Map) HasFruit(x, y, width float64) bool {
	m.mu.RLock()
	tree := m.tree
	m.mu.RUnlock()
	if tree == nil {
		return false
	}

	half := width / 2
	rect, err := rtreego.NewRect(rtreego.Point{x - half, y - half}, []float64{width, width})
	if err != nil {
		return false
	}

	for _, item := range tree.SearchIntersect(rect) {
		if item.(*entry).covers(x, y, half) {
			return true
		}
	}
	return false
}

// Stats returns the current patch count and total patch area.
func (m *Map) Stats() (patches int, area float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count, m.area
}

// covers confirms a bounding-box candidate against the actual patch outline.
func (e *entry) covers(x, y, half float64) bool {
	probes := [5]orb.Point{
		{x, y},
		{x - half, y - half},
		{x + half, y - half},
		{x - half, y + half},
		{x + half, y + half},
	}
	for _, p := range probes {
		if planar.RingContains(e.ring, p) {
			return true
		}
	}

	// A small patch can sit inside the implement square without containing
	// any probe point.
	for _, v := range e.ring {
		if v.X() >= x-half && v.X() <= x+half && v.Y() >= y-half && v.Y() <= y+half {
			return true
		}
	}
	return false
}

// patchRect computes the R-tree rectangle for a patch outline.
func patchRect(poly geometry.Polygon) (rtreego.Rect, error) {
	box := poly.Bound()
	return rtreego.NewRect(
		rtreego.Point{box.MinX, box.MinY},
		[]float64{box.Width(), box.Height()},
	)
}
