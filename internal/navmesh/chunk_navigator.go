package navmesh

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/udisondev/chunknav/internal/space"
)

type navigatorKey struct{}

// FindResult is the outcome of a ChunkNavigator lookup. Exact is false when
// the point lies outside every waypoint and the closest one was picked.
type FindResult struct {
	Set      *WaypointSet
	Waypoint int
	Exact    bool
}

// ChunkNavigator indexes every waypoint set resident in one chunk.
// Outside chunks may additionally keep one girth grid per girth.
type ChunkNavigator struct {
	chunk    *space.Chunk
	sets     []*WaypointSet
	useGrids bool

	grids          []*girthGrid
	gridOrigin     mgl32.Vec2
	gridResolution float32
}

// NavigatorOf returns the navigator of chunk, or nil if no set was ever added.
func NavigatorOf(chunk *space.Chunk) *ChunkNavigator {
	v := chunk.Cache(navigatorKey{}, nil)
	if v == nil {
		return nil
	}
	return v.(*ChunkNavigator)
}

func navigatorFor(chunk *space.Chunk, useGirthGrids bool) *ChunkNavigator {
	return chunk.Cache(navigatorKey{}, func() any {
		return newChunkNavigator(chunk, useGirthGrids && chunk.IsOutside())
	}).(*ChunkNavigator)
}

func newChunkNavigator(chunk *space.Chunk, useGrids bool) *ChunkNavigator {
	n := &ChunkNavigator{chunk: chunk, useGrids: useGrids}
	if useGrids {
		bb := chunk.LocalBB()
		size := bb.Size()
		n.gridResolution = max(size.X(), size.Z()) / (GirthGridSize - 2)
		n.gridOrigin = mgl32.Vec2{bb.Min.X() - n.gridResolution, bb.Min.Z() - n.gridResolution}
	}
	return n
}

func (n *ChunkNavigator) Chunk() *space.Chunk  { return n.chunk }
func (n *ChunkNavigator) Sets() []*WaypointSet { return n.sets }
func (n *ChunkNavigator) IsEmpty() bool        { return len(n.sets) == 0 }
func (n *ChunkNavigator) HasGirthGrids() bool  { return len(n.grids) > 0 }

// HasGirth reports whether any resident set has the given girth.
func (n *ChunkNavigator) HasGirth(girth float32) bool {
	for _, s := range n.sets {
		if s.Girth() == girth {
			return true
		}
	}
	return false
}

// Bind binds every resident set.
func (n *ChunkNavigator) Bind() {
	for _, s := range n.sets {
		s.Bind()
	}
}

// Find locates the waypoint of the given girth for the chunk-local point p.
// It prefers a waypoint containing p and otherwise returns the closest one.
func (n *ChunkNavigator) Find(p mgl32.Vec3, girth float32, ignoreHeight bool) (FindResult, bool) {
	if g := n.grid(girth); g != nil {
		return n.findInGrid(g, p, ignoreHeight)
	}

	for _, s := range n.sets {
		if s.Girth() != girth {
			continue
		}
		if wp := s.data.Find(p, ignoreHeight); wp >= 0 {
			return FindResult{Set: s, Waypoint: wp, Exact: true}, true
		}
	}

	var res FindResult
	bestDist := float32(math.MaxFloat32)
	bb := n.chunk.LocalBB()
	for _, s := range n.sets {
		if s.Girth() != girth {
			continue
		}
		if wp := s.data.FindClosest(bb, p, &bestDist); wp >= 0 {
			res = FindResult{Set: s, Waypoint: wp}
		}
	}
	return res, res.Set != nil
}

func (n *ChunkNavigator) add(s *WaypointSet) {
	n.sets = append(n.sets, s)
	if n.useGrids {
		n.gridFor(s.Girth()).add(n, s)
	}
}

func (n *ChunkNavigator) del(s *WaypointSet) {
	i := slices.Index(n.sets, s)
	if i < 0 {
		return
	}
	n.sets = slices.Delete(n.sets, i, i+1)
	if g := n.grid(s.Girth()); g != nil {
		g.del(s)
		if g.empty() {
			n.grids = slices.DeleteFunc(n.grids, func(x *girthGrid) bool { return x == g })
		}
	}
}

func (n *ChunkNavigator) grid(girth float32) *girthGrid {
	for _, g := range n.grids {
		if g.girth == girth {
			return g
		}
	}
	return nil
}

func (n *ChunkNavigator) gridFor(girth float32) *girthGrid {
	if g := n.grid(girth); g != nil {
		return g
	}
	g := &girthGrid{girth: girth}
	n.grids = append(n.grids, g)
	return g
}

// cellOf returns the (clamped) grid cell containing the local point (x, z).
func (n *ChunkNavigator) cellOf(x, z float32) (int, int) {
	gx := int(math.Floor(float64((x - n.gridOrigin.X()) / n.gridResolution)))
	gz := int(math.Floor(float64((z - n.gridOrigin.Y()) / n.gridResolution)))
	return clampCell(gx), clampCell(gz)
}

func clampCell(c int) int {
	return min(max(c, 0), GirthGridSize-1)
}
