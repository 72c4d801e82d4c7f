package astar

import (
	"iter"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct{ x, y float64 }

type graph struct {
	pos   []point
	adj   [][]int
	zeroH bool
}

func (g *graph) dist(a, b int) float32 {
	dx := g.pos[a].x - g.pos[b].x
	dy := g.pos[a].y - g.pos[b].y
	return float32(math.Sqrt(dx*dx + dy*dy))
}

type gstate struct {
	g    *graph
	id   int
	cost float32
}

func (s gstate) Key() int                    { return s.id }
func (s gstate) IsGoal(goal int) bool        { return s.id == goal }
func (s gstate) DistanceFromParent() float32 { return s.cost }

func (s gstate) DistanceToGoal(goal int) float32 {
	if s.g.zeroH {
		return 0
	}
	return s.g.dist(s.id, goal)
}

func (s gstate) Neighbours(int) iter.Seq[gstate] {
	return func(yield func(gstate) bool) {
		for _, n := range s.g.adj[s.id] {
			if !yield(gstate{g: s.g, id: n, cost: s.g.dist(s.id, n)}) {
				return
			}
		}
	}
}

func newSearch() *Search[gstate, int, int] {
	return New[gstate, int, int]()
}

// randomGraph builds a planar graph where every edge costs its Euclidean
// length, so straight-line distance is an admissible heuristic.
func randomGraph(r *rand.Rand, n int, edgeChance float64) *graph {
	g := &graph{pos: make([]point, n), adj: make([][]int, n)}
	for i := range n {
		g.pos[i] = point{r.Float64() * 100, r.Float64() * 100}
	}
	for i := range n {
		for j := i + 1; j < n; j++ {
			if r.Float64() < edgeChance {
				g.adj[i] = append(g.adj[i], j)
				g.adj[j] = append(g.adj[j], i)
			}
		}
	}
	return g
}

// dijkstra returns the exact shortest distance from src to every node.
func dijkstra(g *graph, src int) []float64 {
	n := len(g.pos)
	dist := make([]float64, n)
	done := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[src] = 0
	for range n {
		u := -1
		for i := range n {
			if !done[i] && (u < 0 || dist[i] < dist[u]) {
				u = i
			}
		}
		if u < 0 || math.IsInf(dist[u], 1) {
			break
		}
		done[u] = true
		for _, v := range g.adj[u] {
			if d := dist[u] + float64(g.dist(u, v)); d < dist[v] {
				dist[v] = d
			}
		}
	}
	return dist
}

func pathCost(path []gstate) float64 {
	var total float64
	for _, s := range path[1:] {
		total += float64(s.cost)
	}
	return total
}

func TestSearchOptimalOnRandomGraphs(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	a := newSearch()

	for trial := range 40 {
		n := 5 + r.IntN(46)
		g := randomGraph(r, n, 0.15)
		src, dst := r.IntN(n), r.IntN(n)
		want := dijkstra(g, src)[dst]

		ok := a.Search(gstate{g: g, id: src}, dst, -1)
		if math.IsInf(want, 1) {
			assert.False(t, ok, "trial %d: unreachable goal must fail", trial)
			continue
		}
		require.True(t, ok, "trial %d: reachable goal must succeed", trial)

		path := a.Path()
		require.NotEmpty(t, path)
		assert.Equal(t, src, path[0].id)
		assert.Equal(t, dst, path[len(path)-1].id)
		assert.InDelta(t, want, pathCost(path), 1e-2, "trial %d: n=%d src=%d dst=%d", trial, n, src, dst)
	}
}

func TestSearchStartIsGoal(t *testing.T) {
	g := &graph{pos: []point{{0, 0}}, adj: [][]int{nil}}
	a := newSearch()

	require.True(t, a.Search(gstate{g: g, id: 0}, 0, -1))
	assert.Len(t, a.Path(), 1)
}

func TestSearchMaxDistanceCutoff(t *testing.T) {
	// 0 - 1 - 2 in a line, 10 apart.
	g := &graph{
		pos: []point{{0, 0}, {10, 0}, {20, 0}},
		adj: [][]int{{1}, {0, 2}, {1}},
	}
	a := newSearch()

	assert.False(t, a.Search(gstate{g: g, id: 0}, 2, 15))
	assert.True(t, a.Search(gstate{g: g, id: 0}, 2, 20))
	assert.True(t, a.Search(gstate{g: g, id: 0}, 2, -1))
}

func TestSearchImprovesDiscoveredNodes(t *testing.T) {
	// Node 1 is first discovered through the expensive edge 0-1 but the
	// cheaper route is 0-2-1. With no heuristic A* is Dijkstra.
	g := &graph{
		pos:   []point{{0, 0}, {10, 0}, {5, 1}, {20, 0}},
		adj:   [][]int{{1, 2}, {0, 2, 3}, {0, 1}, {1}},
		zeroH: true,
	}
	a := newSearch()

	require.True(t, a.Search(gstate{g: g, id: 0}, 3, -1))
	want := dijkstra(g, 0)[3]
	assert.InDelta(t, want, pathCost(a.Path()), 1e-4)
}

func TestSearchNodeLimit(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	g := randomGraph(r, 50, 0.5)
	g.zeroH = true
	a := newSearch()
	a.SetNodeLimit(5)

	// Goal id 50 does not exist: the search must explore until the cap trips.
	assert.False(t, a.Search(gstate{g: g, id: 0}, 50, -1))
	assert.True(t, a.InfiniteLoopProblem())

	a.SetNodeLimit(0)
	assert.False(t, a.Search(gstate{g: g, id: 0}, 50, -1))
	assert.False(t, a.InfiniteLoopProblem())
}

func TestSearchTieBreakIsDeterministic(t *testing.T) {
	// Two equal-cost routes 0-1-3 and 0-2-3; node 1 is discovered first.
	g := &graph{
		pos:   []point{{0, 0}, {5, 5}, {5, -5}, {10, 0}},
		adj:   [][]int{{1, 2}, {0, 3}, {0, 3}, {1, 2}},
		zeroH: true,
	}
	a := newSearch()

	for range 10 {
		require.True(t, a.Search(gstate{g: g, id: 0}, 3, -1))
		path := a.Path()
		require.Len(t, path, 3)
		assert.Equal(t, 1, path[1].id)
	}
}

func TestSearchIterator(t *testing.T) {
	g := &graph{
		pos: []point{{0, 0}, {10, 0}, {20, 0}},
		adj: [][]int{{1}, {0, 2}, {1}},
	}
	a := newSearch()
	require.True(t, a.Search(gstate{g: g, id: 0}, 2, -1))

	var ids []int
	for s, ok := a.First(); ok; s, ok = a.Next() {
		ids = append(ids, s.id)
	}
	assert.Equal(t, []int{0, 1, 2}, ids)

	s, ok := a.First()
	require.True(t, ok)
	assert.Equal(t, 0, s.id)
}

func TestSearchReuseClearsPreviousResult(t *testing.T) {
	g := &graph{
		pos: []point{{0, 0}, {10, 0}, {20, 0}, {50, 50}},
		adj: [][]int{{1}, {0, 2}, {1}, nil},
	}
	a := newSearch()

	require.True(t, a.Search(gstate{g: g, id: 0}, 2, -1))
	require.False(t, a.Search(gstate{g: g, id: 0}, 3, -1))
	assert.Empty(t, a.Path())

	_, ok := a.First()
	assert.False(t, ok)
}
