package navmesh

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/chunknav/internal/space"
	"github.com/udisondev/chunknav/internal/testutil"
)

const (
	testRes   = float32(10)
	testGirth = float32(0.5)
)

// singleRectBlob is one waypoint of testGirth covering a whole testRes chunk.
func singleRectBlob(south, east, north, west uint32) []byte {
	return testutil.NavmeshBlob(testutil.NavmeshSet{
		Girth:    testGirth,
		Polygons: []testutil.Polygon{testutil.Rect(0, 0, testRes, testRes, 0, south, east, north, west)},
	})
}

// parseSet reads exactly one set from blob.
func parseSet(t *testing.T, blob []byte) *WaypointSetData {
	t.Helper()
	sets, err := ReadWaypointSets(blob)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	return sets[0]
}

func gridSpace(t testing.TB, maxGX, maxGZ int) *space.Space {
	t.Helper()
	sp := space.New(testRes, 0, 0, maxGX, maxGZ)
	require.NoError(t, space.BuildOutsideGrid(sp))
	return sp
}

// loadGrid loads the named navmesh into each outside cell and binds the space.
func loadGrid(t testing.TB, sp *space.Space, loader *testutil.MemLoader, meshes map[[2]int]string, grids bool) *Manager {
	t.Helper()
	m := NewManager(loader, Options{GirthGrids: grids, LoadWorkers: 2})

	var loads []ChunkLoad
	for cell, name := range meshes {
		c := sp.OutsideChunk(cell[0], cell[1])
		require.NotNil(t, c, "cell %v", cell)
		loads = append(loads, ChunkLoad{Chunk: c, Navmesh: name})
	}
	require.NoError(t, m.LoadChunks(context.Background(), loads))
	m.BindSpace(sp)
	return m
}

// twoChunkSpace is a 2x1 grid, each chunk holding one full-size waypoint
// linked across the shared x=10 boundary.
func twoChunkSpace(t *testing.T, grids bool) (*space.Space, *Manager) {
	t.Helper()
	loader := testutil.NewMemLoader()
	loader.Put("west.navmesh", singleRectBlob(testutil.Wall, testutil.ChunkAdjacent, testutil.Wall, testutil.Wall))
	loader.Put("east.navmesh", singleRectBlob(testutil.Wall, testutil.Wall, testutil.Wall, testutil.ChunkAdjacent))

	sp := gridSpace(t, 1, 0)
	m := loadGrid(t, sp, loader, map[[2]int]string{
		{0, 0}: "west.navmesh",
		{1, 0}: "east.navmesh",
	}, grids)
	return sp, m
}

func onlySet(t *testing.T, chunk *space.Chunk) *WaypointSet {
	t.Helper()
	nav := NavigatorOf(chunk)
	require.NotNil(t, nav)
	require.Len(t, nav.Sets(), 1)
	return nav.Sets()[0]
}

// newShell adds an indoor chunk spanning the world box [lo, hi] to sp.
func newShell(t *testing.T, sp *space.Space, id string, lo, hi mgl32.Vec3) *space.Chunk {
	t.Helper()
	size := hi.Sub(lo)
	c := space.NewChunk(id, mgl32.Translate3D(lo.X(), lo.Y(), lo.Z()),
		space.BoundingBox{Max: size}, false)
	require.NoError(t, sp.AddChunk(c, 0, 0))
	return c
}

func v3(x, y, z float32) mgl32.Vec3 { return mgl32.Vec3{x, y, z} }
