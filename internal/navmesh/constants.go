package navmesh

// Edge neighbour encoding (Edge.Neighbour).
const (
	// Values below this are indices of a waypoint in the same set.
	firstChunkAdjacent = 32768
	// Values in [firstChunkAdjacent, lastChunkAdjacent] mark an edge on the chunk boundary.
	lastChunkAdjacent = 65535
)

// Geometry tolerances.
const (
	// heightTolerance widens a waypoint's vertical extent in Contains.
	heightTolerance = 0.1
	// edgeTolerance absorbs float error in the half-plane containment test.
	edgeTolerance = 0.01
)

// Binary navmesh layout.
const (
	navmeshVersion     = 0
	setHeaderSize      = 16 // version, girth, numWaypoints, numEdges
	waypointHeaderSize = 12 // minHeight, maxHeight, vertexCount
	edgeRecordSize     = 12 // x, y, neighbour
	maxVertices        = 65535
)

// GirthGridSize is the number of girth grid cells per side, including
// one cell of margin on each side of the chunk footprint.
const GirthGridSize = 12

// Binding.
const (
	// bindHeightRaise lifts boundary probe points above the waypoint surface.
	bindHeightRaise = 0.1
	// bindPortalTolerance is how far a probe point may be from a portal plane.
	bindPortalTolerance = 0.5
	// bindNudge pushes probe points through the portal into the neighbouring chunk.
	bindNudge = 0.1
)

// NavLoc re-grounding probe extents.
const (
	groundProbeUp   = 1.5
	groundProbeDown = 50
)
