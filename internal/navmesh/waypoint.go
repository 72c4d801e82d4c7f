package navmesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/udisondev/chunknav/internal/space"
)

// VertexProvider resolves the 16-bit vertex indices stored in edges.
type VertexProvider interface {
	VertexByIndex(index uint16) mgl32.Vec2
}

// Edge is one side of a waypoint polygon. It runs from its own vertex to the
// vertex of the next edge in the waypoint.
type Edge struct {
	VertexIndex uint16
	Neighbour   uint32
}

// NeighbouringWaypoint returns the index of the adjacent waypoint in the same
// set, or -1.
func (e Edge) NeighbouringWaypoint() int {
	if e.Neighbour < firstChunkAdjacent {
		return int(e.Neighbour)
	}
	return -1
}

// AdjacentToChunk reports whether the edge lies on the chunk boundary.
func (e Edge) AdjacentToChunk() bool {
	return e.Neighbour >= firstChunkAdjacent && e.Neighbour <= lastChunkAdjacent
}

// NeighbouringVista returns the vista/cover flags of an edge with the top bit set.
func (e Edge) NeighbouringVista() uint32 {
	if int32(e.Neighbour) < 0 {
		return ^e.Neighbour
	}
	return 0
}

// Waypoint is a convex navigable polygon with a vertical extent. Coordinates
// are chunk-local; the polygon lives in the (x, z) plane.
type Waypoint struct {
	MinHeight float32
	MaxHeight float32
	Centre    mgl32.Vec2
	// Edges is a window into the owning set data's edge arena.
	Edges []Edge

	firstEdge int
}

func cross2(a, b mgl32.Vec2) float32 {
	return a.X()*b.Y() - a.Y()*b.X()
}

func flat(p mgl32.Vec3) mgl32.Vec2 {
	return mgl32.Vec2{p.X(), p.Z()}
}

// Contains reports whether p is inside the waypoint, including its height range.
func (w *Waypoint) Contains(vp VertexProvider, p mgl32.Vec3) bool {
	if p.Y() < w.MinHeight-heightTolerance || p.Y() > w.MaxHeight+heightTolerance {
		return false
	}
	return w.ContainsProjection(vp, p)
}

// ContainsProjection reports whether p projected onto the (x, z) plane is inside
// the polygon. Points within edgeTolerance outside an edge count as inside.
func (w *Waypoint) ContainsProjection(vp VertexProvider, p mgl32.Vec3) bool {
	if len(w.Edges) == 0 {
		return false
	}
	pt := flat(p)
	start := vp.VertexByIndex(w.Edges[len(w.Edges)-1].VertexIndex)
	for _, e := range w.Edges {
		end := vp.VertexByIndex(e.VertexIndex)
		if cross2(end.Sub(start), pt.Sub(start)) <= -edgeTolerance {
			return false
		}
		start = end
	}
	return true
}

// DistanceSquared returns the squared distance from p to its clipped position.
func (w *Waypoint) DistanceSquared(vp VertexProvider, bb space.BoundingBox, p mgl32.Vec3) float32 {
	d := w.Clip(vp, bb, p).Sub(p)
	return d.Dot(d)
}

// Clip moves p onto the waypoint: points outside the polygon go to the nearest
// point of its boundary, the result is kept inside bb, and the height snaps
// to MaxHeight.
func (w *Waypoint) Clip(vp VertexProvider, bb space.BoundingBox, p mgl32.Vec3) mgl32.Vec3 {
	out := p
	if !w.ContainsProjection(vp, p) && len(w.Edges) > 0 {
		pt := flat(p)
		best := pt
		bestDist := float32(-1)

		start := vp.VertexByIndex(w.Edges[len(w.Edges)-1].VertexIndex)
		for _, e := range w.Edges {
			end := vp.VertexByIndex(e.VertexIndex)
			// Only edges the point is outside of can hold the nearest boundary point.
			if cross2(end.Sub(start), pt.Sub(start)) < 0 {
				c := closestOnSegment(start, end, pt)
				if d := c.Sub(pt).Len(); bestDist < 0 || d < bestDist {
					best, bestDist = c, d
				}
			}
			start = end
		}
		out[0], out[2] = best.X(), best.Y()
	}
	if !bb.ContainsXZ(out) {
		out = bb.ClampXZ(out)
	}
	out[1] = w.MaxHeight
	return out
}

// calcCentre sets Centre to the perimeter-length-weighted average of the edge midpoints.
func (w *Waypoint) calcCentre(vp VertexProvider) {
	if len(w.Edges) == 0 {
		return
	}
	var sum mgl32.Vec2
	var total float32
	start := vp.VertexByIndex(w.Edges[len(w.Edges)-1].VertexIndex)
	for _, e := range w.Edges {
		end := vp.VertexByIndex(e.VertexIndex)
		length := end.Sub(start).Len()
		sum = sum.Add(start.Add(end).Mul(0.5 * length))
		total += length
		start = end
	}
	if total == 0 {
		w.Centre = vp.VertexByIndex(w.Edges[0].VertexIndex)
		return
	}
	w.Centre = sum.Mul(1 / total)
}

func closestOnSegment(a, b, p mgl32.Vec2) mgl32.Vec2 {
	ab := b.Sub(a)
	lenSq := ab.Dot(ab)
	if lenSq == 0 {
		return a
	}
	t := mgl32.Clamp(p.Sub(a).Dot(ab)/lenSq, 0, 1)
	return a.Add(ab.Mul(t))
}
