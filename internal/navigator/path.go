package navigator

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/udisondev/chunknav/internal/navmesh"
)

type keyed[K comparable] interface {
	Key() K
}

// searchPath holds one search result reversed: the destination is at the
// front and the current state at the back, so advancing is a pop.
type searchPath[S keyed[K], K comparable] struct {
	reversePath []S
}

// Init replaces the cached path with path, given start first.
func (p *searchPath[S, K]) Init(path []S) {
	p.reversePath = append(p.reversePath[:0], path...)
	slices.Reverse(p.reversePath)
}

// Matches reports whether the cached path still answers a search from src
// to dst. If src is the state after the cached current one, the path is
// advanced by one step.
func (p *searchPath[S, K]) Matches(src, dst S) bool {
	n := len(p.reversePath)
	if n == 0 || p.reversePath[0].Key() != dst.Key() {
		return false
	}
	if p.reversePath[n-1].Key() == src.Key() {
		return true
	}
	if n >= 2 && p.reversePath[n-2].Key() == src.Key() {
		p.reversePath = p.reversePath[:n-1]
		return true
	}
	return false
}

// Current returns the state the path considers the caller to be in.
func (p *searchPath[S, K]) Current() (S, bool) {
	n := len(p.reversePath)
	if n == 0 {
		var zero S
		return zero, false
	}
	return p.reversePath[n-1], true
}

// Next returns the state after the current one; at the destination it is the
// destination itself.
func (p *searchPath[S, K]) Next() (S, bool) {
	n := len(p.reversePath)
	switch n {
	case 0:
		var zero S
		return zero, false
	case 1:
		return p.reversePath[0], true
	}
	return p.reversePath[n-2], true
}

func (p *searchPath[S, K]) Clear() {
	clear(p.reversePath)
	p.reversePath = p.reversePath[:0]
}

func (p *searchPath[S, K]) Len() int { return len(p.reversePath) }

// States returns the remaining path, current state first.
func (p *searchPath[S, K]) States() []S {
	states := slices.Clone(p.reversePath)
	slices.Reverse(states)
	return states
}

// WaypointPath caches a fine search within one waypoint set.
type WaypointPath struct {
	searchPath[WaypointState, waypointKey]
	destination mgl32.Vec3
}

// Init caches path, found for a search towards the world point destination.
func (p *WaypointPath) Init(path []WaypointState, destination mgl32.Vec3) {
	p.searchPath.Init(path)
	p.destination = destination
}

// Matches also requires the destination point to be unchanged, since it
// decides where each edge is crossed.
func (p *WaypointPath) Matches(src, dst WaypointState) bool {
	if p.Len() == 0 || p.destination != dst.loc.Point() {
		return false
	}
	return p.searchPath.Matches(src, dst)
}

// SetPath caches a coarse search over waypoint sets.
type SetPath struct {
	searchPath[SetState, *navmesh.WaypointSet]
	blockNonPermissive bool
}

func (p *SetPath) Init(path []SetState, blockNonPermissive bool) {
	p.searchPath.Init(path)
	p.blockNonPermissive = blockNonPermissive
}

// Matches never reuses a path that crosses a shell boundary: indoor portals
// open and close without the cache knowing.
func (p *SetPath) Matches(src, dst SetState) bool {
	if p.blockNonPermissive != src.blockNonPermissive {
		return false
	}
	for _, s := range p.reversePath {
		if s.passedShellBoundary {
			return false
		}
	}
	return p.searchPath.Matches(src, dst)
}

// Cache is the per-entity search memory: one set path and one waypoint path.
// It is not safe for concurrent use.
type Cache struct {
	waypoints WaypointPath
	sets      SetPath
}

func (c *Cache) Waypoints() *WaypointPath { return &c.waypoints }
func (c *Cache) Sets() *SetPath           { return &c.sets }

func (c *Cache) Clear() {
	c.waypoints.Clear()
	c.sets.Clear()
}
