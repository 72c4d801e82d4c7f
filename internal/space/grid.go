package space

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// OutsideChunkID returns the conventional id of the outside chunk at (gx, gz).
func OutsideChunkID(gx, gz int) string {
	return fmt.Sprintf("outside_%d_%d", gx, gz)
}

// NewOutsideChunk creates the outside chunk for grid cell (gx, gz). Its local
// space has the origin at the cell's minimum corner.
func NewOutsideChunk(s *Space, gx, gz int) *Chunk {
	res := s.gridResolution
	transform := mgl32.Translate3D(float32(gx)*res, 0, float32(gz)*res)
	bb := BoundingBox{
		Min: mgl32.Vec3{0, OutsideMinHeight, 0},
		Max: mgl32.Vec3{res, OutsideMaxHeight, res},
	}
	return NewChunk(OutsideChunkID(gx, gz), transform, bb, true)
}

// BuildOutsideGrid creates every outside chunk of the space extent and links
// neighbouring cells with portals. Chunks start unloaded.
func BuildOutsideGrid(s *Space) error {
	for gx := s.minGridX; gx <= s.maxGridX; gx++ {
		for gz := s.minGridZ; gz <= s.maxGridZ; gz++ {
			if err := s.AddChunk(NewOutsideChunk(s, gx, gz), gx, gz); err != nil {
				return fmt.Errorf("building outside grid: %w", err)
			}
		}
	}

	res := s.gridResolution
	for gx := s.minGridX; gx <= s.maxGridX; gx++ {
		for gz := s.minGridZ; gz <= s.maxGridZ; gz++ {
			c := s.OutsideChunk(gx, gz)
			x0, z0 := float32(gx)*res, float32(gz)*res

			if east := s.OutsideChunk(gx+1, gz); east != nil {
				x := x0 + res
				LinkChunks(c, east, []mgl32.Vec3{
					{x, OutsideMinHeight, z0},
					{x, OutsideMinHeight, z0 + res},
					{x, OutsideMaxHeight, z0 + res},
					{x, OutsideMaxHeight, z0},
				}, mgl32.Vec3{1, 0, 0})
			}
			if north := s.OutsideChunk(gx, gz+1); north != nil {
				z := z0 + res
				LinkChunks(c, north, []mgl32.Vec3{
					{x0, OutsideMinHeight, z},
					{x0 + res, OutsideMinHeight, z},
					{x0 + res, OutsideMaxHeight, z},
					{x0, OutsideMaxHeight, z},
				}, mgl32.Vec3{0, 0, 1})
			}
		}
	}
	return nil
}

// LinkChunks creates a bound portal pair between a and b over the world-space
// polygon points. normal points from a into b.
func LinkChunks(a, b *Chunk, points []mgl32.Vec3, normal mgl32.Vec3) (*Portal, *Portal) {
	ab := NewPortal(points, normal)
	ba := NewPortal(points, normal.Mul(-1))
	a.AddPortal(ab)
	b.AddPortal(ba)
	ab.Bind(b)
	ba.Bind(a)
	return ab, ba
}
