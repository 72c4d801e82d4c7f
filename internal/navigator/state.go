package navigator

import (
	"iter"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/udisondev/chunknav/internal/navmesh"
)

type waypointKey struct {
	set      *navmesh.WaypointSet
	waypoint int
}

// WaypointState is a node of the fine search: a point on the boundary of (or
// inside) one waypoint. A state that steps into another set carries waypoint -1
// and has no neighbours of its own.
type WaypointState struct {
	loc                navmesh.NavLoc
	distanceFromParent float32
}

// NewWaypointState wraps loc as a search node with no parent.
func NewWaypointState(loc navmesh.NavLoc) WaypointState {
	return WaypointState{loc: loc}
}

func (s WaypointState) Loc() navmesh.NavLoc            { return s.loc }
func (s WaypointState) Key() waypointKey               { return waypointKey{s.loc.Set(), s.loc.Waypoint()} }
func (s WaypointState) DistanceFromParent() float32    { return s.distanceFromParent }
func (s WaypointState) IsGoal(goal WaypointState) bool { return s.loc.SameWaypoint(goal.loc) }

func (s WaypointState) DistanceToGoal(goal WaypointState) float32 {
	return goal.loc.Point().Sub(s.loc.Point()).Len()
}

// Neighbours yields one state per traversable edge of the current waypoint.
// The new point is where the straight line towards the goal crosses the edge.
func (s WaypointState) Neighbours(goal WaypointState) iter.Seq[WaypointState] {
	return func(yield func(WaypointState) bool) {
		if !s.loc.Resolved() {
			return
		}
		set := s.loc.Set()
		data := set.Data()
		chunk := set.Chunk()
		wp := data.Waypoint(s.loc.Waypoint())

		from := flat(chunk.ToLocal(s.loc.Point()))
		to := flat(chunk.ToLocal(goal.loc.Point()))

		for i, e := range wp.Edges {
			nextSet, nextWP := set, e.NeighbouringWaypoint()
			height := wp.MaxHeight
			switch {
			case nextWP >= 0:
				height = max(height, data.Waypoint(nextWP).MaxHeight)
			case e.AdjacentToChunk():
				nextSet = set.ConnectionWaypoint(data.EdgeIndex(wp, i))
				if nextSet == nil || nextSet.Chunk() == nil {
					continue
				}
			default:
				continue
			}

			a, b := data.EdgeEndpoints(wp, i)
			cross := crossingPoint(a, b, from, to)
			point := chunk.ToWorld(mgl32.Vec3{cross.X(), height, cross.Y()})

			next := WaypointState{
				loc:                navmesh.MakeNavLoc(nextSet, nextWP, point),
				distanceFromParent: point.Sub(s.loc.Point()).Len(),
			}
			if !yield(next) {
				return
			}
		}
	}
}

// SetState is a node of the coarse search over waypoint sets connected
// through chunk portals.
type SetState struct {
	set                *navmesh.WaypointSet
	position           mgl32.Vec3
	distanceFromParent float32

	passedActivatedPortal bool
	passedShellBoundary   bool
	blockNonPermissive    bool
}

// NewSetState starts a set search at position inside set. With
// blockNonPermissive, portals that are not permissive are not traversed.
func NewSetState(set *navmesh.WaypointSet, position mgl32.Vec3, blockNonPermissive bool) SetState {
	return SetState{set: set, position: position, blockNonPermissive: blockNonPermissive}
}

func (s SetState) Set() *navmesh.WaypointSet   { return s.set }
func (s SetState) Position() mgl32.Vec3        { return s.position }
func (s SetState) Key() *navmesh.WaypointSet   { return s.set }
func (s SetState) DistanceFromParent() float32 { return s.distanceFromParent }
func (s SetState) IsGoal(goal SetState) bool   { return s.set == goal.set }
func (s SetState) PassedActivatedPortal() bool { return s.passedActivatedPortal }
func (s SetState) PassedShellBoundary() bool   { return s.passedShellBoundary }

func (s SetState) DistanceToGoal(goal SetState) float32 {
	return goal.position.Sub(s.position).Len()
}

func (s SetState) Neighbours(SetState) iter.Seq[SetState] {
	return func(yield func(SetState) bool) {
		for _, c := range s.set.Connections() {
			portal := c.Portal
			if s.blockNonPermissive && !portal.Permissive() {
				continue
			}
			centre := portal.Centre()
			next := SetState{
				set:                   c.Set,
				position:              centre,
				distanceFromParent:    centre.Sub(s.position).Len(),
				passedActivatedPortal: portal.Activated(),
				passedShellBoundary:   portal.IsShellBoundary(),
				blockNonPermissive:    s.blockNonPermissive,
			}
			if !yield(next) {
				return
			}
		}
	}
}

func flat(p mgl32.Vec3) mgl32.Vec2 {
	return mgl32.Vec2{p.X(), p.Z()}
}

func cross2(a, b mgl32.Vec2) float32 {
	return a.X()*b.Y() - a.Y()*b.X()
}

// crossingPoint returns where the line from → to crosses the segment a-b. If
// the line misses the segment, the endpoint on the shorter detour is used.
func crossingPoint(a, b, from, to mgl32.Vec2) mgl32.Vec2 {
	edge := b.Sub(a)
	dir := to.Sub(from)
	if dir.LenSqr() < 1e-8 {
		return closestOnSegment(a, b, from)
	}

	if denom := cross2(edge, dir); denom > 1e-6 || denom < -1e-6 {
		t := cross2(from.Sub(a), dir) / denom
		if t >= 0 && t <= 1 {
			return a.Add(edge.Mul(t))
		}
	}

	viaA := a.Sub(from).Len() + to.Sub(a).Len()
	viaB := b.Sub(from).Len() + to.Sub(b).Len()
	if viaA <= viaB {
		return a
	}
	return b
}

func closestOnSegment(a, b, p mgl32.Vec2) mgl32.Vec2 {
	ab := b.Sub(a)
	l := ab.LenSqr()
	if l == 0 {
		return a
	}
	t := mgl32.Clamp(p.Sub(a).Dot(ab)/l, 0, 1)
	return a.Add(ab.Mul(t))
}
