package navmesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/udisondev/chunknav/internal/space"
)

// NavLoc identifies where a world point lies in the navigation mesh: a
// waypoint set, a waypoint index within it and the point itself.
//
// A NavLoc produced by a search step into another set may carry waypoint -1
// (semi-valid); resolve it with NewNavLocGuess before searching from it.
type NavLoc struct {
	set      *WaypointSet
	waypoint int
	point    mgl32.Vec3
}

// NewNavLoc resolves a world point in sp for the given girth.
func NewNavLoc(sp *space.Space, point mgl32.Vec3, girth float32) NavLoc {
	chunk := sp.FindChunkFromPoint(point)
	if chunk == nil {
		return NavLoc{waypoint: -1, point: point}
	}
	return NewNavLocInChunk(chunk, point, girth)
}

// NewNavLocInChunk resolves a world point against the sets of one chunk.
func NewNavLocInChunk(chunk *space.Chunk, point mgl32.Vec3, girth float32) NavLoc {
	loc := NavLoc{waypoint: -1, point: point}
	nav := NavigatorOf(chunk)
	if nav == nil {
		return loc
	}
	res, ok := nav.Find(chunk.ToLocal(point), girth, false)
	if !ok {
		return loc
	}
	loc.set, loc.waypoint = res.Set, res.Waypoint
	return loc
}

// NewNavLocInSet resolves a world point within one set only. The waypoint is
// -1 when no waypoint of the set contains the point.
func NewNavLocInSet(set *WaypointSet, point mgl32.Vec3) NavLoc {
	loc := NavLoc{set: set, waypoint: -1, point: point}
	if set == nil || set.chunk == nil {
		loc.set = nil
		return loc
	}
	loc.waypoint = set.Find(set.chunk.ToLocal(point), false)
	return loc
}

// NewNavLocGuess resolves point starting from a previous location. If the point
// is still inside the guess's set the lookup stays there; otherwise it falls
// back to a full lookup and, failing that, re-grounds the point with a
// vertical ray cast.
func NewNavLocGuess(guess NavLoc, point mgl32.Vec3) NavLoc {
	if guess.set == nil || guess.set.chunk == nil {
		return NavLoc{waypoint: -1, point: point}
	}
	chunk := guess.set.chunk
	if wp := guess.set.Find(chunk.ToLocal(point), false); wp >= 0 {
		return NavLoc{set: guess.set, waypoint: wp, point: point}
	}

	sp := chunk.Space()
	girth := guess.set.Girth()
	if sp == nil {
		return NewNavLocInChunk(chunk, point, girth)
	}
	if loc := NewNavLoc(sp, point, girth); loc.Valid() {
		return loc
	}

	start := point.Add(mgl32.Vec3{0, groundProbeUp, 0})
	end := point.Sub(mgl32.Vec3{0, groundProbeDown, 0})
	if dist, ok := sp.Collide(start, end); ok {
		ground := start.Add(end.Sub(start).Normalize().Mul(dist))
		return NewNavLoc(sp, ground, girth)
	}
	return NavLoc{waypoint: -1, point: point}
}

// MakeNavLoc builds a location from its parts without any lookup.
func MakeNavLoc(set *WaypointSet, waypoint int, point mgl32.Vec3) NavLoc {
	return NavLoc{set: set, waypoint: waypoint, point: point}
}

// Valid reports whether the location is attached to a chunk-resident set.
func (l NavLoc) Valid() bool {
	return l.set != nil && l.set.chunk != nil
}

// Resolved reports whether the location is valid and names a waypoint.
func (l NavLoc) Resolved() bool {
	return l.Valid() && l.waypoint >= 0
}

func (l NavLoc) Set() *WaypointSet { return l.set }
func (l NavLoc) Waypoint() int     { return l.waypoint }
func (l NavLoc) Point() mgl32.Vec3 { return l.point }

// Girth returns the girth of the location's set, or 0 when invalid.
func (l NavLoc) Girth() float32 {
	if l.set == nil {
		return 0
	}
	return l.set.Girth()
}

// Chunk returns the chunk of the location's set, or nil.
func (l NavLoc) Chunk() *space.Chunk {
	if l.set == nil {
		return nil
	}
	return l.set.chunk
}

// IsWithinWP reports whether the point lies inside its waypoint.
func (l NavLoc) IsWithinWP() bool {
	if !l.Resolved() {
		return false
	}
	return l.set.Waypoint(l.waypoint).Contains(l.set.data, l.set.chunk.ToLocal(l.point))
}

// Clip returns the point moved onto its waypoint, in world space.
func (l NavLoc) Clip() mgl32.Vec3 {
	if !l.Resolved() {
		return l.point
	}
	chunk := l.set.chunk
	local := l.set.Waypoint(l.waypoint).Clip(l.set.data, chunk.LocalBB(), chunk.ToLocal(l.point))
	return chunk.ToWorld(local)
}

// SameWaypoint reports whether both locations name the same set and waypoint.
func (l NavLoc) SameWaypoint(o NavLoc) bool {
	return l.set == o.set && l.waypoint == o.waypoint
}

func (l NavLoc) String() string {
	if l.set == nil {
		return fmt.Sprintf("NavLoc(invalid %v)", l.point)
	}
	chunk := "<detached>"
	if l.set.chunk != nil {
		chunk = l.set.chunk.ID()
	}
	return fmt.Sprintf("NavLoc(%s girth=%g wp=%d %v)", chunk, l.Girth(), l.waypoint, l.point)
}
