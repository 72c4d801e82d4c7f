// Package navigator finds paths across the chunked navigation mesh: a coarse
// search over connected waypoint sets followed by a fine search over the
// waypoints of the current set.
package navigator

import (
	"log/slog"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/udisondev/chunknav/internal/astar"
	"github.com/udisondev/chunknav/internal/navmesh"
	"github.com/udisondev/chunknav/internal/space"
)

const (
	// maxFullPathSteps bounds FindFullPath against meshes that never converge.
	maxFullPathSteps = 4096
	// Used when a location is not attached to a space.
	defaultGridResolution = 100
	samePointTolerance    = 1e-3
)

type (
	waypointSearch = astar.Search[WaypointState, WaypointState, waypointKey]
	setSearch      = astar.Search[SetState, SetState, *navmesh.WaypointSet]
)

// Searches are recycled across all navigators.
var (
	waypointSearches = sync.Pool{New: func() any {
		return astar.New[WaypointState, WaypointState, waypointKey]()
	}}
	setSearches = sync.Pool{New: func() any {
		return astar.New[SetState, SetState, *navmesh.WaypointSet]()
	}}
)

// Pathfinder is the capability exposed to movement controllers.
type Pathfinder interface {
	FindPath(src, dst navmesh.NavLoc, maxSearchDistance float32, blockNonPermissive bool) (next navmesh.NavLoc, passedActivatedPortal bool, ok bool)
	FindFullPath(src, dst navmesh.NavLoc, maxSearchDistance float32, blockNonPermissive bool) ([]mgl32.Vec3, bool)
	CachedPath() []mgl32.Vec3
}

var _ Pathfinder = (*Navigator)(nil)

// Navigator plans movement for one entity. It keeps the entity's search
// cache between calls and must not be used from several goroutines at once.
type Navigator struct {
	cache     Cache
	nodeLimit int

	infiniteLoopProblem bool
}

// New creates a navigator. nodeLimit caps every A* search it runs; zero
// selects astar.DefaultNodeLimit.
func New(nodeLimit int) *Navigator {
	if nodeLimit <= 0 {
		nodeLimit = astar.DefaultNodeLimit
	}
	return &Navigator{nodeLimit: nodeLimit}
}

// InfiniteLoopProblem reports whether the last query was cut short by the
// search node limit.
func (n *Navigator) InfiniteLoopProblem() bool { return n.infiniteLoopProblem }

// ClearCache forgets the cached paths.
func (n *Navigator) ClearCache() { n.cache.Clear() }

// FindPath returns the next point to move to on the way from src to dst.
// When src and dst are in the same waypoint the result is dst itself. A next
// location in another waypoint set has waypoint -1; resolve it with
// navmesh.NewNavLocGuess before using it as a source.
func (n *Navigator) FindPath(src, dst navmesh.NavLoc, maxSearchDistance float32, blockNonPermissive bool) (navmesh.NavLoc, bool, bool) {
	n.infiniteLoopProblem = false
	return n.findPath(&n.cache, src, dst, maxSearchDistance, blockNonPermissive, true)
}

// FindFullPath returns every point from src to dst, dst last. It uses its own
// cache, so it does not disturb the navigator's incremental FindPath state.
func (n *Navigator) FindFullPath(src, dst navmesh.NavLoc, maxSearchDistance float32, blockNonPermissive bool) ([]mgl32.Vec3, bool) {
	n.infiniteLoopProblem = false

	var cache Cache
	var points []mgl32.Vec3
	cur := src

	for range maxFullPathSteps {
		next, _, ok := n.findPath(&cache, cur, dst, maxSearchDistance, blockNonPermissive, true)
		if !ok {
			return nil, false
		}
		if len(points) == 0 || points[len(points)-1] != next.Point() {
			points = append(points, next.Point())
		}
		if next.Set() == dst.Set() && next.Point() == dst.Point() {
			return points, true
		}

		if !next.Resolved() {
			resolved := navmesh.NewNavLocInSet(next.Set(), next.Point())
			if !resolved.Resolved() {
				resolved = navmesh.NewNavLocGuess(next, next.Point())
			}
			next = resolved
		}
		if !next.Resolved() {
			return nil, false
		}

		// No progress
		if next.SameWaypoint(cur) && next.Point().ApproxEqualThreshold(cur.Point(), samePointTolerance) {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// CachedPath returns the points of the cached fine path, current point first.
func (n *Navigator) CachedPath() []mgl32.Vec3 {
	states := n.cache.waypoints.States()
	points := make([]mgl32.Vec3, len(states))
	for i, s := range states {
		points[i] = s.loc.Point()
	}
	return points
}

// CanNavigateTo reports whether dst can be reached from src for an entity of
// the given girth, and returns dst moved onto the mesh.
func (n *Navigator) CanNavigateTo(sp *space.Space, src, dst mgl32.Vec3, girth, maxSearchDistance float32) (mgl32.Vec3, bool) {
	srcLoc := navmesh.NewNavLoc(sp, src, girth)
	dstLoc := navmesh.NewNavLoc(sp, dst, girth)
	if !srcLoc.Resolved() || !dstLoc.Resolved() {
		return mgl32.Vec3{}, false
	}
	if _, ok := n.FindFullPath(srcLoc, dstLoc, maxSearchDistance, false); !ok {
		return mgl32.Vec3{}, false
	}
	return dstLoc.Clip(), true
}

func (n *Navigator) findPath(cache *Cache, src, dst navmesh.NavLoc, maxSearchDistance float32, blockNonPermissive, retry bool) (navmesh.NavLoc, bool, bool) {
	var fail navmesh.NavLoc

	src = resolve(src)
	dst = resolve(dst)
	if !src.Resolved() || !dst.Resolved() {
		return fail, false, false
	}
	if src.Girth() != dst.Girth() {
		return fail, false, false
	}

	goal := dst
	passedActivatedPortal := false
	inSetDistance := maxSearchDistance

	if src.Set() != dst.Set() {
		step, ok := n.nextSet(cache, src, dst, maxSearchDistance, blockNonPermissive)
		if !ok {
			return fail, false, false
		}
		goal = navmesh.MakeNavLoc(step.set, -1, dst.Point())
		passedActivatedPortal = step.passedActivatedPortal

		// Across sets the fine search is uncapped when the budget exceeds a chunk.
		if maxSearchDistance > gridResolution(src) {
			inSetDistance = -1
		}
	} else if src.Waypoint() == dst.Waypoint() {
		return dst, false, true
	}

	next, ok := n.nextWaypoint(cache, src, goal, inSetDistance)
	if !ok {
		return fail, false, false
	}

	// Standing on the shared edge: continue from the next set.
	if retry && next.Set() != src.Set() && next.Point().ApproxEqualThreshold(src.Point(), samePointTolerance) {
		if moved := navmesh.NewNavLocInSet(next.Set(), src.Point()); moved.Resolved() {
			return n.findPath(cache, moved, dst, maxSearchDistance, blockNonPermissive, false)
		}
	}
	return next, passedActivatedPortal, true
}

// nextSet returns the set state after src's set on the way to dst's set.
func (n *Navigator) nextSet(cache *Cache, src, dst navmesh.NavLoc, maxSearchDistance float32, blockNonPermissive bool) (SetState, bool) {
	start := NewSetState(src.Set(), src.Point(), blockNonPermissive)
	goal := NewSetState(dst.Set(), dst.Point(), blockNonPermissive)

	if !cache.sets.Matches(start, goal) {
		search := setSearches.Get().(*setSearch)
		defer setSearches.Put(search)

		search.SetNodeLimit(n.nodeLimit)
		ok := search.Search(start, goal, maxSearchDistance)
		if search.InfiniteLoopProblem() {
			n.reportInfiniteLoop("set", src, dst)
		}
		if !ok {
			cache.Clear()
			return SetState{}, false
		}
		cache.sets.Init(search.Path(), blockNonPermissive)
	}
	return cache.sets.Next()
}

// nextWaypoint returns the location after src on the fine path to goal.
func (n *Navigator) nextWaypoint(cache *Cache, src, goal navmesh.NavLoc, maxSearchDistance float32) (navmesh.NavLoc, bool) {
	start := NewWaypointState(src)
	target := NewWaypointState(goal)

	if !cache.waypoints.Matches(start, target) {
		search := waypointSearches.Get().(*waypointSearch)
		defer waypointSearches.Put(search)

		search.SetNodeLimit(n.nodeLimit)
		ok := search.Search(start, target, maxSearchDistance)
		if search.InfiniteLoopProblem() {
			n.reportInfiniteLoop("waypoint", src, goal)
		}
		if !ok {
			cache.waypoints.Clear()
			return navmesh.NavLoc{}, false
		}
		cache.waypoints.Init(search.Path(), goal.Point())
	}

	next, ok := cache.waypoints.Next()
	return next.loc, ok
}

func (n *Navigator) reportInfiniteLoop(kind string, src, dst navmesh.NavLoc) {
	n.infiniteLoopProblem = true
	slog.Warn("navigation search hit node limit",
		"search", kind,
		"limit", n.nodeLimit,
		"src", src.Point(),
		"dst", dst.Point(),
		"src_chunk", chunkID(src),
		"dst_chunk", chunkID(dst))
}

// resolve turns a semi-valid location (set known, waypoint -1) into a full one.
func resolve(loc navmesh.NavLoc) navmesh.NavLoc {
	if !loc.Valid() || loc.Waypoint() >= 0 {
		return loc
	}
	return navmesh.NewNavLocGuess(loc, loc.Point())
}

func gridResolution(loc navmesh.NavLoc) float32 {
	if c := loc.Chunk(); c != nil && c.Space() != nil {
		return c.Space().GridResolution()
	}
	return defaultGridResolution
}

func chunkID(loc navmesh.NavLoc) string {
	if c := loc.Chunk(); c != nil {
		return c.ID()
	}
	return ""
}
