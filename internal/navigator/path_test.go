package navigator

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/chunknav/internal/navmesh"
)

type step int

func (s step) Key() int { return int(s) }

func TestSearchPathAdvanceLaw(t *testing.T) {
	var p searchPath[step, int]
	assert.False(t, p.Matches(0, 3), "empty cache never matches")

	p.Init([]step{0, 1, 2, 3})
	require.Equal(t, 4, p.Len())

	// No movement: the cache is reused as is.
	assert.True(t, p.Matches(0, 3))
	cur, _ := p.Current()
	assert.Equal(t, step(0), cur)
	next, _ := p.Next()
	assert.Equal(t, step(1), next)

	// One step along the path advances the cache.
	assert.True(t, p.Matches(1, 3))
	cur, _ = p.Current()
	assert.Equal(t, step(1), cur)
	assert.Equal(t, []step{1, 2, 3}, p.States())

	// Skipping ahead or changing the goal needs a new search.
	assert.False(t, p.Matches(3, 3))
	assert.False(t, p.Matches(1, 2))
	assert.Equal(t, 3, p.Len())

	assert.True(t, p.Matches(2, 3))
	assert.True(t, p.Matches(3, 3))
	next, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, step(3), next, "at the destination the next state is the destination")

	p.Clear()
	_, ok = p.Next()
	assert.False(t, ok)
}

func TestWaypointPathRequiresSameDestinationPoint(t *testing.T) {
	set := new(navmesh.WaypointSet)
	a := NewWaypointState(navmesh.MakeNavLoc(set, 0, v3(1, 0, 1)))
	b := NewWaypointState(navmesh.MakeNavLoc(set, 1, v3(5, 0, 1)))
	dst := v3(8, 0, 1)

	var p WaypointPath
	p.Init([]WaypointState{a, b}, dst)

	goal := NewWaypointState(navmesh.MakeNavLoc(set, 1, dst))
	assert.True(t, p.Matches(a, goal))

	moved := NewWaypointState(navmesh.MakeNavLoc(set, 1, v3(9, 0, 1)))
	assert.False(t, p.Matches(a, moved))
}

func TestSetPathInvalidation(t *testing.T) {
	a, b, c := new(navmesh.WaypointSet), new(navmesh.WaypointSet), new(navmesh.WaypointSet)
	start := NewSetState(a, mgl32.Vec3{}, false)
	mid := SetState{set: b}
	end := SetState{set: c}

	var p SetPath
	p.Init([]SetState{start, mid, end}, false)
	assert.True(t, p.Matches(start, end))
	assert.False(t, p.Matches(NewSetState(a, mgl32.Vec3{}, true), end), "blocking mode changed")

	shell := SetState{set: b, passedShellBoundary: true}
	p.Init([]SetState{start, shell, end}, false)
	assert.False(t, p.Matches(start, end), "shell portals may have closed")
}

func TestCrossingPoint(t *testing.T) {
	a, b := mgl32.Vec2{10, 0}, mgl32.Vec2{10, 10}

	tests := []struct {
		name     string
		from, to mgl32.Vec2
		want     mgl32.Vec2
	}{
		{"crosses", mgl32.Vec2{5, 5}, mgl32.Vec2{15, 5}, mgl32.Vec2{10, 5}},
		{"diagonal", mgl32.Vec2{5, 0}, mgl32.Vec2{15, 10}, mgl32.Vec2{10, 5}},
		{"misses above", mgl32.Vec2{5, 12}, mgl32.Vec2{15, 16}, mgl32.Vec2{10, 10}},
		{"misses below", mgl32.Vec2{5, -2}, mgl32.Vec2{15, -6}, mgl32.Vec2{10, 0}},
		{"parallel", mgl32.Vec2{5, 1}, mgl32.Vec2{5, 2}, mgl32.Vec2{10, 0}},
		{"at goal", mgl32.Vec2{12, 4}, mgl32.Vec2{12, 4}, mgl32.Vec2{10, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := crossingPoint(a, b, tt.from, tt.to)
			assert.True(t, got.ApproxEqualThreshold(tt.want, 1e-4), "got %v want %v", got, tt.want)
		})
	}
}
