package navmesh

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrBadVersion is returned for a sub-blob whose version is not supported.
	ErrBadVersion = errors.New("unsupported navmesh version")
	// ErrMalformed marks a navmesh resource that failed to parse.
	ErrMalformed = errors.New("malformed navmesh")
	// ErrTooManyVertices is returned when a set needs more distinct vertices than 16-bit indices address.
	ErrTooManyVertices = errors.New("navmesh vertex index space exhausted")
)

// ReadWaypointSets parses every sub-blob of a navmesh resource.
// An empty buffer is a valid resource with no sets.
func ReadWaypointSets(data []byte) ([]*WaypointSetData, error) {
	var sets []*WaypointSetData
	offset := 0
	for offset < len(data) {
		set, consumed, err := ReadWaypointSet(data, offset)
		if err != nil {
			return nil, fmt.Errorf("read waypoint set %d: %w", len(sets), err)
		}
		sets = append(sets, set)
		offset += consumed
	}
	return sets, nil
}

// ReadWaypointSet parses one sub-blob at offset and returns the number of bytes consumed.
func ReadWaypointSet(data []byte, offset int) (*WaypointSetData, int, error) {
	start := offset
	if offset+setHeaderSize > len(data) {
		return nil, 0, fmt.Errorf("parse set header: insufficient data at offset %d", offset)
	}

	version := int32(binary.LittleEndian.Uint32(data[offset:]))
	if version != navmeshVersion {
		return nil, 0, fmt.Errorf("parse set header: version %d at offset %d: %w", version, offset, ErrBadVersion)
	}
	girth := readFloat32(data, offset+4)
	numWaypoints := int(int32(binary.LittleEndian.Uint32(data[offset+8:])))
	numEdges := int(int32(binary.LittleEndian.Uint32(data[offset+12:])))
	offset += setHeaderSize

	if numWaypoints < 0 || numEdges < 0 {
		return nil, 0, fmt.Errorf("parse set header: negative counts (%d waypoints, %d edges)", numWaypoints, numEdges)
	}
	need := numWaypoints*waypointHeaderSize + numEdges*edgeRecordSize
	if offset+need > len(data) {
		return nil, 0, fmt.Errorf("parse set: need %d bytes at offset %d, have %d", need, offset, len(data)-offset)
	}

	d := &WaypointSetData{
		girth:     girth,
		waypoints: make([]Waypoint, numWaypoints),
		edges:     make([]Edge, numEdges),
	}

	edgeCursor := 0
	for i := range numWaypoints {
		wp := &d.waypoints[i]
		wp.MinHeight = readFloat32(data, offset)
		wp.MaxHeight = readFloat32(data, offset+4)
		count := int(int32(binary.LittleEndian.Uint32(data[offset+8:])))
		offset += waypointHeaderSize

		if count < 3 {
			return nil, 0, fmt.Errorf("parse waypoint %d: %d vertices", i, count)
		}
		if edgeCursor+count > numEdges {
			return nil, 0, fmt.Errorf("parse waypoint %d: edges overflow (%d + %d > %d)", i, edgeCursor, count, numEdges)
		}
		wp.firstEdge = edgeCursor
		wp.Edges = d.edges[edgeCursor : edgeCursor+count : edgeCursor+count]
		edgeCursor += count
	}
	if edgeCursor != numEdges {
		return nil, 0, fmt.Errorf("parse set: waypoints use %d edges, header declares %d", edgeCursor, numEdges)
	}

	vertexIndex := make(map[mgl32.Vec2]uint16)
	for i := range numEdges {
		v := mgl32.Vec2{readFloat32(data, offset), readFloat32(data, offset+4)}
		neighbour := binary.LittleEndian.Uint32(data[offset+8:])
		offset += edgeRecordSize

		idx, ok := vertexIndex[v]
		if !ok {
			if len(d.vertices) >= maxVertices {
				return nil, 0, fmt.Errorf("parse edge %d: %w", i, ErrTooManyVertices)
			}
			idx = uint16(len(d.vertices))
			d.vertices = append(d.vertices, v)
			vertexIndex[v] = idx
		}
		d.edges[i] = Edge{VertexIndex: idx, Neighbour: neighbour}
	}

	for i := range d.waypoints {
		wp := &d.waypoints[i]
		for _, e := range wp.Edges {
			if n := e.NeighbouringWaypoint(); n >= numWaypoints {
				return nil, 0, fmt.Errorf("parse waypoint %d: neighbour %d out of range", i, n)
			}
		}
		wp.calcCentre(d)
	}

	return d, offset - start, nil
}

func readFloat32(data []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
}
