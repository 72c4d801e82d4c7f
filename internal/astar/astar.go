// Package astar is a generic A* graph search over caller-defined states.
package astar

import (
	"container/heap"
	"iter"
)

// DefaultNodeLimit caps the number of distinct states one search may discover.
const DefaultNodeLimit = 100000

// State is a search node. S is the concrete state type, G the goal type and
// K a comparable identity used to detect revisits.
type State[S any, G any, K comparable] interface {
	// Key identifies the state; two states with equal keys are the same node.
	Key() K
	// IsGoal reports whether the state satisfies goal.
	IsGoal(goal G) bool
	// Neighbours yields every traversable adjacent state. Each yielded state
	// must know its DistanceFromParent relative to the receiver.
	Neighbours(goal G) iter.Seq[S]
	// DistanceFromParent is the edge cost from the state that produced this one.
	DistanceFromParent() float32
	// DistanceToGoal is the heuristic cost estimate to goal.
	DistanceToGoal(goal G) float32
}

type node[S any] struct {
	state     S
	g, h      float32
	parent    int32
	seq       uint32
	heapIndex int32 // -1 once closed
}

// Search runs A* searches and keeps the most recent path. Its node arena is
// reused between searches; a Search must not be used concurrently.
type Search[S State[S, G, K], G any, K comparable] struct {
	nodes []node[S]
	index map[K]int32
	open  openList[S]
	seq   uint32

	path   []S
	cursor int

	nodeLimit           int
	infiniteLoopProblem bool
}

// New creates a search with DefaultNodeLimit.
func New[S State[S, G, K], G any, K comparable]() *Search[S, G, K] {
	a := &Search[S, G, K]{
		index:     make(map[K]int32),
		nodeLimit: DefaultNodeLimit,
	}
	a.open.nodes = &a.nodes
	return a
}

// SetNodeLimit changes the runaway-growth cap. Non-positive restores the default.
func (a *Search[S, G, K]) SetNodeLimit(limit int) {
	if limit <= 0 {
		limit = DefaultNodeLimit
	}
	a.nodeLimit = limit
}

// InfiniteLoopProblem reports whether the last search was aborted because it
// discovered more than the node limit of states.
func (a *Search[S, G, K]) InfiniteLoopProblem() bool {
	return a.infiniteLoopProblem
}

// Search looks for the cheapest path from start to a state satisfying goal.
// Paths whose cost would exceed maxDistance are pruned; a negative
// maxDistance disables the cutoff. On success the path is available through
// Path, First and Next.
func (a *Search[S, G, K]) Search(start S, goal G, maxDistance float32) bool {
	a.reset()
	a.push(start, 0, -1, goal)

	for a.open.Len() > 0 {
		id := heap.Pop(&a.open).(int32)
		current := a.nodes[id].state
		g := a.nodes[id].g

		if current.IsGoal(goal) {
			a.buildPath(id)
			return true
		}

		for next := range current.Neighbours(goal) {
			ng := g + next.DistanceFromParent()
			if maxDistance >= 0 && ng > maxDistance {
				continue
			}

			if existing, ok := a.index[next.Key()]; ok {
				n := &a.nodes[existing]
				if ng >= n.g {
					continue
				}
				n.state, n.g, n.parent = next, ng, id
				if n.heapIndex >= 0 {
					heap.Fix(&a.open, int(n.heapIndex))
				} else {
					heap.Push(&a.open, existing)
				}
				continue
			}

			if len(a.nodes) >= a.nodeLimit {
				a.infiniteLoopProblem = true
				return false
			}
			a.push(next, ng, id, goal)
		}
	}
	return false
}

// Path returns the states of the last successful search, start first.
// The slice is owned by the Search and overwritten by the next search.
func (a *Search[S, G, K]) Path() []S {
	return a.path
}

// First rewinds the path iterator and returns the start state.
func (a *Search[S, G, K]) First() (S, bool) {
	a.cursor = 0
	return a.Next()
}

// Next returns the next state of the path.
func (a *Search[S, G, K]) Next() (S, bool) {
	if a.cursor >= len(a.path) {
		var zero S
		return zero, false
	}
	s := a.path[a.cursor]
	a.cursor++
	return s, true
}

func (a *Search[S, G, K]) reset() {
	clear(a.nodes)
	a.nodes = a.nodes[:0]
	clear(a.index)
	a.open.ids = a.open.ids[:0]
	clear(a.path)
	a.path = a.path[:0]
	a.cursor = 0
	a.seq = 0
	a.infiniteLoopProblem = false
}

func (a *Search[S, G, K]) push(s S, g float32, parent int32, goal G) {
	id := int32(len(a.nodes))
	a.nodes = append(a.nodes, node[S]{
		state:  s,
		g:      g,
		h:      s.DistanceToGoal(goal),
		parent: parent,
		seq:    a.seq,
	})
	a.seq++
	a.index[s.Key()] = id
	heap.Push(&a.open, id)
}

// buildPath follows parent links from the goal back to the start.
func (a *Search[S, G, K]) buildPath(goal int32) {
	for id := goal; id >= 0; id = a.nodes[id].parent {
		a.path = append(a.path, a.nodes[id].state)
	}
	for i, j := 0, len(a.path)-1; i < j; i, j = i+1, j-1 {
		a.path[i], a.path[j] = a.path[j], a.path[i]
	}
}

// openList is a min-heap of node ids ordered by f = g + h, then by lower h,
// then by discovery order.
type openList[S any] struct {
	ids   []int32
	nodes *[]node[S]
}

func (o openList[S]) Len() int { return len(o.ids) }

func (o openList[S]) Less(i, j int) bool {
	a, b := &(*o.nodes)[o.ids[i]], &(*o.nodes)[o.ids[j]]
	fa, fb := a.g+a.h, b.g+b.h
	if fa != fb {
		return fa < fb
	}
	if a.h != b.h {
		return a.h < b.h
	}
	return a.seq < b.seq
}

func (o openList[S]) Swap(i, j int) {
	o.ids[i], o.ids[j] = o.ids[j], o.ids[i]
	(*o.nodes)[o.ids[i]].heapIndex = int32(i)
	(*o.nodes)[o.ids[j]].heapIndex = int32(j)
}

func (o *openList[S]) Push(x any) {
	id := x.(int32)
	(*o.nodes)[id].heapIndex = int32(len(o.ids))
	o.ids = append(o.ids, id)
}

func (o *openList[S]) Pop() any {
	n := len(o.ids)
	id := o.ids[n-1]
	o.ids = o.ids[:n-1]
	(*o.nodes)[id].heapIndex = -1
	return id
}
