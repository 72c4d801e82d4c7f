package navmesh

import (
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/udisondev/chunknav/internal/space"
)

// WaypointSetData is one baked navigation mesh of a single girth. It is
// immutable after loading and shared by every chunk that loads the same
// resource; lifetime is governed by a reference count.
type WaypointSetData struct {
	girth     float32
	waypoints []Waypoint
	vertices  []mgl32.Vec2
	edges     []Edge
	source    string

	refs    atomic.Int32
	release func(*WaypointSetData)
}

func (d *WaypointSetData) Girth() float32                    { return d.girth }
func (d *WaypointSetData) NumWaypoints() int                 { return len(d.waypoints) }
func (d *WaypointSetData) NumEdges() int                     { return len(d.edges) }
func (d *WaypointSetData) NumVertices() int                  { return len(d.vertices) }
func (d *WaypointSetData) Source() string                    { return d.source }
func (d *WaypointSetData) Waypoint(i int) *Waypoint          { return &d.waypoints[i] }
func (d *WaypointSetData) VertexByIndex(i uint16) mgl32.Vec2 { return d.vertices[i] }

// EdgeIndex returns the arena index of edge i of wp.
func (d *WaypointSetData) EdgeIndex(wp *Waypoint, i int) int {
	return wp.firstEdge + i
}

// EdgeEndpoints returns the start and end vertex of edge i of wp.
func (d *WaypointSetData) EdgeEndpoints(wp *Waypoint, i int) (mgl32.Vec2, mgl32.Vec2) {
	next := i + 1
	if next == len(wp.Edges) {
		next = 0
	}
	return d.vertices[wp.Edges[i].VertexIndex], d.vertices[wp.Edges[next].VertexIndex]
}

// Find returns the index of the waypoint containing the chunk-local point p, or -1.
// With ignoreHeight, a point above or below every waypoint falls back to the
// waypoint under it whose average height is closest.
func (d *WaypointSetData) Find(p mgl32.Vec3, ignoreHeight bool) int {
	for i := range d.waypoints {
		if d.waypoints[i].Contains(d, p) {
			return i
		}
	}
	if !ignoreHeight {
		return -1
	}

	best := -1
	bestDiff := float32(math.MaxFloat32)
	for i := range d.waypoints {
		wp := &d.waypoints[i]
		if !wp.ContainsProjection(d, p) {
			continue
		}
		diff := abs32((wp.MinHeight+wp.MaxHeight)/2 - p.Y())
		if diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

// FindClosest returns the waypoint whose clipped distance to p beats
// *bestDistSq, updating it, or -1 if none does.
func (d *WaypointSetData) FindClosest(bb space.BoundingBox, p mgl32.Vec3, bestDistSq *float32) int {
	best := -1
	for i := range d.waypoints {
		if dist := d.waypoints[i].DistanceSquared(d, bb, p); dist < *bestDistSq {
			best = i
			*bestDistSq = dist
		}
	}
	return best
}

// IncRef takes a reference.
func (d *WaypointSetData) IncRef() {
	d.refs.Add(1)
}

// TryIncRef takes a reference unless the data is already being released.
func (d *WaypointSetData) TryIncRef() bool {
	for {
		n := d.refs.Load()
		if n <= 0 {
			return false
		}
		if d.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// DecRef drops a reference. The last release unpublishes the data.
func (d *WaypointSetData) DecRef() {
	if d.refs.Add(-1) == 0 && d.release != nil {
		d.release(d)
	}
}

// RefCount returns the current reference count.
func (d *WaypointSetData) RefCount() int32 {
	return d.refs.Load()
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
