package navmesh

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/chunknav/internal/testutil"
)

// stripBlob splits a chunk into four 2.5m-wide strips along x plus a second
// girth covering the whole chunk.
func stripBlob() []byte {
	var strips []testutil.Polygon
	for i := range 4 {
		x0 := float32(i) * 2.5
		strips = append(strips, testutil.Rect(x0, 0, x0+2.5, testRes, 0,
			testutil.Wall, testutil.Wall, testutil.Wall, testutil.Wall))
	}
	return testutil.NavmeshBlob(
		testutil.NavmeshSet{Girth: testGirth, Polygons: strips},
		testutil.NavmeshSet{Girth: 2, Polygons: []testutil.Polygon{
			testutil.Rect(0, 0, testRes, testRes, 1, testutil.Wall, testutil.Wall, testutil.Wall, testutil.Wall),
		}},
	)
}

func TestChunkNavigatorFind(t *testing.T) {
	for _, grids := range []bool{false, true} {
		t.Run(fmt.Sprintf("grids=%v", grids), func(t *testing.T) {
			loader := testutil.NewMemLoader()
			loader.Put("strips.navmesh", stripBlob())
			sp := gridSpace(t, 0, 0)
			loadGrid(t, sp, loader, map[[2]int]string{{0, 0}: "strips.navmesh"}, grids)

			nav := NavigatorOf(sp.OutsideChunk(0, 0))
			require.NotNil(t, nav)
			require.Len(t, nav.Sets(), 2)
			assert.Equal(t, grids, nav.HasGirthGrids())
			assert.True(t, nav.HasGirth(testGirth))
			assert.True(t, nav.HasGirth(2))
			assert.False(t, nav.HasGirth(1))

			tests := []struct {
				name         string
				x, y, z      float32
				girth        float32
				ignoreHeight bool
				waypoint     int
				exact        bool
			}{
				{"first strip", 1, 0, 5, testGirth, false, 0, true},
				{"last strip", 9, 0, 5, testGirth, false, 3, true},
				{"floating above", 6, 0.5, 5, testGirth, true, 2, true},
				{"other girth", 6, 1, 5, 2, false, 0, true},
				{"outside chunk footprint", 12, 0, 5, testGirth, false, 3, false},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					res, ok := nav.Find(v3(tt.x, tt.y, tt.z), tt.girth, tt.ignoreHeight)
					require.True(t, ok)
					assert.Equal(t, tt.girth, res.Set.Girth())
					assert.Equal(t, tt.waypoint, res.Waypoint)
					assert.Equal(t, tt.exact, res.Exact)
				})
			}

			_, ok := nav.Find(v3(5, 0, 5), 7, false)
			assert.False(t, ok)
		})
	}
}

func TestChunkNavigatorGridsOnlyOutside(t *testing.T) {
	sp := gridSpace(t, 0, 0)
	nav := navigatorFor(sp.OutsideChunk(0, 0), true)
	assert.True(t, nav.useGrids)
	assert.InDelta(t, 1, nav.gridResolution, 1e-6)
	assert.InDelta(t, -1, nav.gridOrigin.X(), 1e-6)

	shell := newShell(t, sp, "shell", v3(2, 0, 2), v3(4, 3, 4))
	assert.False(t, navigatorFor(shell, true).useGrids)
}

func TestChunkNavigatorDelDropsEmptyGrid(t *testing.T) {
	loader := testutil.NewMemLoader()
	loader.Put("strips.navmesh", stripBlob())
	sp := gridSpace(t, 0, 0)
	m := loadGrid(t, sp, loader, map[[2]int]string{{0, 0}: "strips.navmesh"}, true)

	chunk := sp.OutsideChunk(0, 0)
	nav := NavigatorOf(chunk)
	require.Len(t, nav.grids, 2)

	nav.Sets()[1].Toss(nil)
	assert.Len(t, nav.grids, 1)
	assert.False(t, nav.HasGirth(2))

	m.UnloadChunk(chunk)
	assert.Nil(t, NavigatorOf(chunk))
	assert.False(t, chunk.Loaded())
	require.NoError(t, m.LoadChunk(context.Background(), chunk, "strips.navmesh"))
	assert.Len(t, NavigatorOf(chunk).Sets(), 2)
}
