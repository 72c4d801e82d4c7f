package navmesh

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

type gridEntry struct {
	set      *WaypointSet
	waypoint int
}

// girthGrid buckets the waypoints of one girth by the grid cells they overlap.
// A waypoint appears in every cell its vertex bounds cover.
type girthGrid struct {
	girth float32
	cells [GirthGridSize * GirthGridSize][]gridEntry
}

func (g *girthGrid) cell(gx, gz int) []gridEntry {
	return g.cells[gx*GirthGridSize+gz]
}

func (g *girthGrid) add(n *ChunkNavigator, s *WaypointSet) {
	d := s.data
	for wi := range d.waypoints {
		wp := &d.waypoints[wi]
		minX, minZ := GirthGridSize, GirthGridSize
		maxX, maxZ := -1, -1
		for _, e := range wp.Edges {
			v := d.vertices[e.VertexIndex]
			gx, gz := n.cellOf(v.X(), v.Y())
			minX, maxX = min(minX, gx), max(maxX, gx)
			minZ, maxZ = min(minZ, gz), max(maxZ, gz)
		}
		for gx := minX; gx <= maxX; gx++ {
			for gz := minZ; gz <= maxZ; gz++ {
				i := gx*GirthGridSize + gz
				g.cells[i] = append(g.cells[i], gridEntry{set: s, waypoint: wi})
			}
		}
	}
}

func (g *girthGrid) del(s *WaypointSet) {
	for i := range g.cells {
		g.cells[i] = slices.DeleteFunc(g.cells[i], func(e gridEntry) bool { return e.set == s })
	}
}

func (g *girthGrid) empty() bool {
	for i := range g.cells {
		if len(g.cells[i]) > 0 {
			return false
		}
	}
	return true
}

// findInGrid resolves p against the cell containing it, then spirals outward
// ring by ring picking the closest waypoint. The spiral stops one ring after
// the first candidate, which can miss the true nearest waypoint when large
// waypoints span many cells.
func (n *ChunkNavigator) findInGrid(g *girthGrid, p mgl32.Vec3, ignoreHeight bool) (FindResult, bool) {
	cx, cz := n.cellOf(p.X(), p.Z())
	home := g.cell(cx, cz)

	for _, e := range home {
		if e.set.data.waypoints[e.waypoint].Contains(e.set.data, p) {
			return FindResult{Set: e.set, Waypoint: e.waypoint, Exact: true}, true
		}
	}

	// Match-or-lower: the point floats above a waypoint. With ignoreHeight any
	// height goes and the closest average height wins.
	var best gridEntry
	found := false
	bestScore := float32(math.MaxFloat32)
	for _, e := range home {
		wp := &e.set.data.waypoints[e.waypoint]
		if !wp.ContainsProjection(e.set.data, p) {
			continue
		}
		var score float32
		if ignoreHeight {
			score = abs32((wp.MinHeight+wp.MaxHeight)/2 - p.Y())
		} else {
			if wp.MinHeight > p.Y()+heightTolerance {
				continue
			}
			score = p.Y() - wp.MaxHeight
		}
		if score < bestScore {
			best, bestScore, found = e, score, true
		}
	}
	if found {
		return FindResult{Set: best.set, Waypoint: best.waypoint, Exact: true}, true
	}

	bb := n.chunk.LocalBB()
	visited := make(map[gridEntry]struct{})
	bestDist := float32(math.MaxFloat32)
	foundRing := -1
	for r := 0; r < GirthGridSize; r++ {
		if foundRing >= 0 && r > foundRing+1 {
			break
		}
		for gx := cx - r; gx <= cx+r; gx++ {
			for gz := cz - r; gz <= cz+r; gz++ {
				onRing := gx == cx-r || gx == cx+r || gz == cz-r || gz == cz+r
				if !onRing || gx < 0 || gz < 0 || gx >= GirthGridSize || gz >= GirthGridSize {
					continue
				}
				for _, e := range g.cell(gx, gz) {
					if _, seen := visited[e]; seen {
						continue
					}
					visited[e] = struct{}{}
					dist := e.set.data.waypoints[e.waypoint].DistanceSquared(e.set.data, bb, p)
					if dist < bestDist {
						best, bestDist = e, dist
						if foundRing < 0 {
							foundRing = r
						}
					}
				}
			}
		}
	}
	if foundRing < 0 {
		return FindResult{}, false
	}
	return FindResult{Set: best.set, Waypoint: best.waypoint}, true
}
