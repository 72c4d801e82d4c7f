package navmesh

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/udisondev/chunknav/internal/testutil"
)

// tiledBlob covers a testRes chunk with n×n square waypoints.
func tiledBlob(n int) []byte {
	step := testRes / float32(n)
	polys := make([]testutil.Polygon, 0, n*n)
	for z := range n {
		for x := range n {
			x0, z0 := float32(x)*step, float32(z)*step
			polys = append(polys, testutil.Rect(x0, z0, x0+step, z0+step, 0,
				testutil.Wall, testutil.Wall, testutil.Wall, testutil.Wall))
		}
	}
	return testutil.NavmeshBlob(testutil.NavmeshSet{Girth: testGirth, Polygons: polys})
}

// BenchmarkChunkNavigatorFind compares girth-grid lookup with the linear scan
// on a chunk of 1600 waypoints.
func BenchmarkChunkNavigatorFind(b *testing.B) {
	r := rand.New(rand.NewPCG(3, 5))
	points := make([]mgl32.Vec3, 1024)
	for i := range points {
		points[i] = mgl32.Vec3{r.Float32() * testRes, 0, r.Float32() * testRes}
	}

	for _, grids := range []bool{false, true} {
		loader := testutil.NewMemLoader()
		loader.Put("tiles.navmesh", tiledBlob(40))
		sp := gridSpace(b, 0, 0)
		loadGrid(b, sp, loader, map[[2]int]string{{0, 0}: "tiles.navmesh"}, grids)
		nav := NavigatorOf(sp.OutsideChunk(0, 0))

		b.Run(fmt.Sprintf("grids=%v/exact", grids), func(b *testing.B) {
			b.ReportAllocs()

			b.ResetTimer()
			for i := range b.N {
				if _, ok := nav.Find(points[i%len(points)], testGirth, false); !ok {
					b.Fatal("point not found")
				}
			}
		})

		b.Run(fmt.Sprintf("grids=%v/closest", grids), func(b *testing.B) {
			b.ReportAllocs()

			b.ResetTimer()
			for i := range b.N {
				p := points[i%len(points)]
				p[1] = 5
				if _, ok := nav.Find(p, testGirth, false); !ok {
					b.Fatal("no closest waypoint")
				}
			}
		})
	}
}
