// Package astar implements best-first graph search over caller-supplied
// neighbor expansion. Nodes are arbitrary comparable handles; the engine
// never derives adjacency on its own and consults the caller's validity
// callback before accepting any move.
package astar

import "container/heap"

// Graph supplies candidate neighbors for a node. Implementations are free to
// return neighbors the validity callback will later reject.
type Graph[N comparable] interface {
	Neighbors(n N) []N
}

// GraphFunc adapts a plain function to the Graph interface.
type GraphFunc[N comparable] func(n N) []N

// Neighbors calls f(n).
func (f GraphFunc[N]) Neighbors(n N) []N { return f(n) }

// Result carries the outcome of a search. Found distinguishes "no path" from
// a zero-length path; Expanded counts nodes taken off the frontier.
type Result[N comparable] struct {
	Path     []N
	Cost     float64
	Expanded int
	Found    bool
}

// node is the per-handle search bookkeeping.
type node[N comparable] struct {
	id     N
	g      float64 // cost from start
	h      float64 // heuristic to goal
	f      float64 // g + h
	parent *node[N]
	index  int // position in the heap
}

// openHeap implements heap.Interface ordered by f.
type openHeap[N comparable] []*node[N]

func (oh openHeap[N]) Len() int { return len(oh) }

func (oh openHeap[N]) Less(i, j int) bool { return oh[i].f < oh[j].f }

func (oh openHeap[N]) Swap(i, j int) {
	oh[i], oh[j] = oh[j], oh[i]
	oh[i].index = i
	oh[j].index = j
}

func (oh *openHeap[N]) Push(x any) {
	n := x.(*node[N])
	n.index = len(*oh)
	*oh = append(*oh, n)
}

func (oh *openHeap[N]) Pop() any {
	old := *oh
	last := len(old) - 1
	n := old[last]
	old[last] = nil
	n.index = -1
	*oh = old[:last]
	return n
}

// Search runs A* from start to goal. cost prices an accepted move and must
// not be nil; heuristic estimates remaining cost and may be nil for uniform
// search; valid, when non-nil, must confirm every candidate move before it
// is accepted. The search is synchronous and runs to completion.
func Search[N comparable](g Graph[N], start, goal N, cost, heuristic func(a, b N) float64, valid func(from, to N) bool) Result[N] {
	if heuristic == nil {
		heuristic = func(N, N) float64 { return 0 }
	}

	open := &openHeap[N]{}
	heap.Init(open)

	first := &node[N]{id: start, h: heuristic(start, goal)}
	first.f = first.h
	heap.Push(open, first)

	closed := make(map[N]bool)
	inOpen := map[N]*node[N]{start: first}

	expanded := 0
	for open.Len() > 0 {
		current := heap.Pop(open).(*node[N])
		delete(inOpen, current.id)
		expanded++

		if current.id == goal {
			return Result[N]{
				Path:     reconstruct(current),
				Cost:     current.g,
				Expanded: expanded,
				Found:    true,
			}
		}
		closed[current.id] = true

		for _, nb := range g.Neighbors(current.id) {
			if closed[nb] {
				continue
			}
			if valid != nil && !valid(current.id, nb) {
				continue
			}

			tentative := current.g + cost(current.id, nb)
			known, ok := inOpen[nb]
			if !ok {
				next := &node[N]{id: nb, g: tentative, h: heuristic(nb, goal), parent: current}
				next.f = next.g + next.h
				heap.Push(open, next)
				inOpen[nb] = next
			} else if tentative < known.g {
				// Found a cheaper way to a frontier node.
				known.g = tentative
				known.f = known.g + known.h
				known.parent = current
				heap.Fix(open, known.index)
			}
		}
	}

	return Result[N]{Expanded: expanded}
}

// reconstruct walks the parent chain back to the start and reverses it.
func reconstruct[N comparable](end *node[N]) []N {
	var path []N
	for n := end; n != nil; n = n.parent {
		path = append(path, n.id)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
