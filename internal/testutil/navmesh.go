package testutil

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Edge neighbour encodings used when building navmesh blobs.
const (
	// ChunkAdjacent marks an edge on the chunk boundary.
	ChunkAdjacent uint32 = 65535
	// Wall marks an edge with no neighbour (vista flags 0).
	Wall uint32 = 0xFFFFFFFF
)

// Polygon is one waypoint of a test navmesh. Vertices are chunk-local (x, z)
// pairs, counter-clockwise; Neighbours[i] belongs to the edge starting at
// Vertices[i].
type Polygon struct {
	MinHeight  float32
	MaxHeight  float32
	Vertices   []mgl32.Vec2
	Neighbours []uint32
}

// Rect builds an axis-aligned rectangular waypoint. Neighbours are given in
// edge order: south (min z), east (max x), north (max z), west (min x).
func Rect(minX, minZ, maxX, maxZ, height float32, south, east, north, west uint32) Polygon {
	return Polygon{
		MinHeight: height,
		MaxHeight: height,
		Vertices: []mgl32.Vec2{
			{minX, minZ},
			{maxX, minZ},
			{maxX, maxZ},
			{minX, maxZ},
		},
		Neighbours: []uint32{south, east, north, west},
	}
}

// NavmeshSet is one sub-blob: all waypoints of one girth.
type NavmeshSet struct {
	Version  int32
	Girth    float32
	Polygons []Polygon
}

// NavmeshBlob encodes sets in the baked navmesh layout, one sub-blob after
// another.
func NavmeshBlob(sets ...NavmeshSet) []byte {
	var buf []byte
	for _, s := range sets {
		numEdges := 0
		for _, p := range s.Polygons {
			numEdges += len(p.Vertices)
		}

		buf = binary.LittleEndian.AppendUint32(buf, uint32(s.Version))
		buf = appendFloat32(buf, s.Girth)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.Polygons)))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(numEdges))

		for _, p := range s.Polygons {
			buf = appendFloat32(buf, p.MinHeight)
			buf = appendFloat32(buf, p.MaxHeight)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.Vertices)))
		}
		for _, p := range s.Polygons {
			for i, v := range p.Vertices {
				neighbour := Wall
				if i < len(p.Neighbours) {
					neighbour = p.Neighbours[i]
				}
				buf = appendFloat32(buf, v.X())
				buf = appendFloat32(buf, v.Y())
				buf = binary.LittleEndian.AppendUint32(buf, neighbour)
			}
		}
	}
	return buf
}

func appendFloat32(buf []byte, v float32) []byte {
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
}
