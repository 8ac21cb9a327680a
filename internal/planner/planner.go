package planner

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"field-planner/internal/astar"
	"field-planner/internal/geometry"
)

// ErrInvalidInput marks requests that are malformed before any planning work
// starts. A field with no feasible route is not an error; this is.
var ErrInvalidInput = errors.New("invalid input")

const (
	// maxTurnAngle is the sharpest corner the towed implement can follow,
	// applied during post-search smoothing.
	maxTurnAngle = 30 * math.Pi / 180

	// minSmoothPasses is always run even when the raw path already looks
	// smooth.
	minSmoothPasses = 1

	// simplifyDivisor scales the Douglas-Peucker tolerance off the implement
	// width before smoothing.
	simplifyDivisor = 20
)

// Stats summarizes one FindPath invocation for an optional metrics sink.
type Stats struct {
	Nodes      int
	Expanded   int
	Checks     int
	PathPoints int
	PathLength float64
	BuildTime  time.Duration
	SearchTime time.Duration
	Found      bool
}

// Option configures a Planner.
type Option func(*Planner)

// WithStatsHook installs a callback that receives per-request Stats after
// every FindPath, found or not. The hook runs synchronously on the calling
// goroutine.
func WithStatsHook(hook func(Stats)) Option {
	return func(p *Planner) { p.statsHook = hook }
}

// Planner computes crop-avoiding routes through field polygons. It holds no
// per-request state, so a single Planner may serve concurrent FindPath calls;
// every call builds and owns its own Graph.
type Planner struct {
	oracle    FruitOracle
	statsHook func(Stats)
}

// New returns a Planner that consults the given oracle for standing crop.
func New(oracle FruitOracle, opts ...Option) *Planner {
	p := &Planner{oracle: oracle}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FindPath computes a route from start to goal through the field that keeps
// the implement clear of boundaries and standing crop. Coordinates are in the
// caller's world convention, in and out.
//
// The returned graph is the sampled lattice with start and goal spliced in,
// for diagnostics and visualization; it is returned for no-path outcomes too.
// A nil path with a nil error means no feasible route exists, which callers
// must handle as a normal outcome. Errors are reserved for invalid input.
func (p *Planner) FindPath(start, goal geometry.Point, field geometry.Polygon, width float64) ([]geometry.Point, *Graph, error) {
	if width <= 0 {
		return nil, nil, fmt.Errorf("%w: width must be positive, got %g", ErrInvalidInput, width)
	}
	if len(field.Vertices) < 3 {
		return nil, nil, fmt.Errorf("%w: field polygon needs at least 3 vertices, got %d", ErrInvalidInput, len(field.Vertices))
	}

	interior := geometry.FromWorldPolygon(field)
	from := geometry.FromWorld(start)
	to := geometry.FromWorld(goal)

	buildStart := time.Now()
	g := BuildGrid(interior, width, p.oracle)
	startIdx := g.Splice(from)
	goalIdx := g.Splice(to)
	buildTime := time.Since(buildStart)

	log.Printf("🗺️  Grid built: %d nodes (%d columns), start linked to %d, goal linked to %d",
		len(g.Nodes), g.Cols, len(g.Nodes[startIdx].Links), len(g.Nodes[goalIdx].Links))

	searchStart := time.Now()
	res := astar.Search[int](g, startIdx, goalIdx, g.stepCost, g.stepCost, g.IsValidNeighbor)
	searchTime := time.Since(searchStart)

	stats := Stats{
		Nodes:      len(g.Nodes),
		Expanded:   res.Expanded,
		Checks:     g.Checks,
		BuildTime:  buildTime,
		SearchTime: searchTime,
		Found:      res.Found,
	}

	if !res.Found {
		log.Printf("   ⚠️  No path found (%d nodes expanded, %d validity checks)", res.Expanded, g.Checks)
		p.emit(stats)
		return nil, g, nil
	}

	points := make([]geometry.Point, len(res.Path))
	for i, idx := range res.Path {
		points[i] = g.Nodes[idx].Pos
	}

	points = geometry.Simplify(points, width/simplifyDivisor)
	course := geometry.NewCourse(points)
	course.Smooth(maxTurnAngle, minSmoothPasses, true)

	path := geometry.ToWorldPath(course.Points)
	stats.PathPoints = len(path)
	stats.PathLength = course.Length

	log.Printf("   ✅ Path found: %d points, %.1f long (%d nodes expanded)",
		len(path), course.Length, res.Expanded)
	p.emit(stats)
	return path, g, nil
}

func (p *Planner) emit(stats Stats) {
	if p.statsHook != nil {
		p.statsHook(stats)
	}
}
