package navigator

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/chunknav/internal/navmesh"
	"github.com/udisondev/chunknav/internal/space"
	"github.com/udisondev/chunknav/internal/testutil"
)

const (
	chunkSize = float32(10)
	girth     = float32(0.5)
)

type world struct {
	space   *space.Space
	manager *navmesh.Manager
}

// newWorld builds a gx×gz outside grid and loads meshes[cell] into each cell.
func newWorld(t *testing.T, gx, gz int, meshes map[[2]int][]byte) *world {
	t.Helper()
	sp := space.New(chunkSize, 0, 0, gx-1, gz-1)
	require.NoError(t, space.BuildOutsideGrid(sp))

	loader := testutil.NewMemLoader()
	var loads []navmesh.ChunkLoad
	for cell, blob := range meshes {
		c := sp.OutsideChunk(cell[0], cell[1])
		require.NotNil(t, c)
		loader.Put(c.ID(), blob)
		loads = append(loads, navmesh.ChunkLoad{Chunk: c, Navmesh: c.ID()})
	}

	m := navmesh.NewManager(loader, navmesh.Options{GirthGrids: true, LoadWorkers: 2})
	require.NoError(t, m.LoadChunks(context.Background(), loads))
	m.BindSpace(sp)
	return &world{space: sp, manager: m}
}

func (w *world) loc(t *testing.T, x, y, z, g float32) navmesh.NavLoc {
	t.Helper()
	loc := navmesh.NewNavLoc(w.space, mgl32.Vec3{x, y, z}, g)
	require.True(t, loc.Resolved(), "no waypoint at (%g, %g, %g) girth %g", x, y, z, g)
	return loc
}

func (w *world) set(t *testing.T, gx, gz int) *navmesh.WaypointSet {
	t.Helper()
	nav := navmesh.NavigatorOf(w.space.OutsideChunk(gx, gz))
	require.NotNil(t, nav)
	require.NotEmpty(t, nav.Sets())
	return nav.Sets()[0]
}

func fullChunk(south, east, north, west uint32) []byte {
	return testutil.NavmeshBlob(testutil.NavmeshSet{
		Girth:    girth,
		Polygons: []testutil.Polygon{testutil.Rect(0, 0, chunkSize, chunkSize, 0, south, east, north, west)},
	})
}

// twoChunks is a 2x1 grid with one chunk-sized waypoint per chunk, linked
// across x = 10.
func twoChunks(t *testing.T) *world {
	t.Helper()
	return newWorld(t, 2, 1, map[[2]int][]byte{
		{0, 0}: fullChunk(testutil.Wall, testutil.ChunkAdjacent, testutil.Wall, testutil.Wall),
		{1, 0}: fullChunk(testutil.Wall, testutil.Wall, testutil.Wall, testutil.ChunkAdjacent),
	})
}

// lShape is one chunk with three 5m squares: A (0..5, 0..5), B (5..10, 0..5)
// and C (5..10, 5..10), connected A-B-C.
func lShape(t *testing.T) *world {
	t.Helper()
	w := testutil.Wall
	return newWorld(t, 1, 1, map[[2]int][]byte{
		{0, 0}: testutil.NavmeshBlob(testutil.NavmeshSet{
			Girth: girth,
			Polygons: []testutil.Polygon{
				testutil.Rect(0, 0, 5, 5, 0, w, 1, w, w),
				testutil.Rect(5, 0, 10, 5, 0, w, w, 2, 0),
				testutil.Rect(5, 5, 10, 10, 0, 1, w, w, w),
			},
		}),
	})
}

func v3(x, y, z float32) mgl32.Vec3 { return mgl32.Vec3{x, y, z} }
