package navmesh

import (
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/udisondev/chunknav/internal/space"
)

// Connection is a link from a waypoint set to a set in a neighbouring chunk.
type Connection struct {
	Set    *WaypointSet
	Portal *space.Portal
}

// WaypointSet attaches shared WaypointSetData to one chunk and tracks its live
// connections to sets in neighbouring chunks.
//
// Connections are created by Bind and removed by Toss; callers must not run
// either concurrently with searches that traverse the set.
type WaypointSet struct {
	data    *WaypointSetData
	chunk   *space.Chunk
	gridded bool

	connections []Connection
	connIndex   map[*WaypointSet]int
	edgeLabels  map[int]*WaypointSet
	backlinks   []*WaypointSet
	bound       bool
}

// NewWaypointSet wraps data. The set takes over one reference on data.
// useGirthGrids selects grid acceleration for the chunk navigator the set joins.
func NewWaypointSet(data *WaypointSetData, useGirthGrids bool) *WaypointSet {
	return &WaypointSet{
		data:       data,
		gridded:    useGirthGrids,
		connIndex:  make(map[*WaypointSet]int),
		edgeLabels: make(map[int]*WaypointSet),
	}
}

func (s *WaypointSet) Data() *WaypointSetData    { return s.data }
func (s *WaypointSet) Chunk() *space.Chunk       { return s.chunk }
func (s *WaypointSet) Girth() float32            { return s.data.girth }
func (s *WaypointSet) Bound() bool               { return s.bound }
func (s *WaypointSet) Connections() []Connection { return s.connections }
func (s *WaypointSet) NumConnections() int       { return len(s.connections) }
func (s *WaypointSet) NumWaypoints() int         { return len(s.data.waypoints) }
func (s *WaypointSet) Waypoint(i int) *Waypoint  { return &s.data.waypoints[i] }

// Find returns the waypoint containing the chunk-local point p, or -1.
func (s *WaypointSet) Find(p mgl32.Vec3, ignoreHeight bool) int {
	return s.data.Find(p, ignoreHeight)
}

// ConnectionWaypoint returns the set reached through the boundary edge with
// the given arena index, or nil if the edge is not connected.
func (s *WaypointSet) ConnectionWaypoint(edgeIndex int) *WaypointSet {
	return s.edgeLabels[edgeIndex]
}

// ConnectionPortal returns the portal through which s connects to other, or nil.
func (s *WaypointSet) ConnectionPortal(other *WaypointSet) *space.Portal {
	if i, ok := s.connIndex[other]; ok {
		return s.connections[i].Portal
	}
	return nil
}

// Toss moves the set into chunk. A nil chunk removes the set from its current
// chunk, tearing down every connection in both directions first.
func (s *WaypointSet) Toss(chunk *space.Chunk) {
	if s.chunk != nil {
		s.removeOthersConnections()
		s.removeOurConnections()
		s.bound = false
		if nav := NavigatorOf(s.chunk); nav != nil {
			nav.del(s)
		}
	}

	s.chunk = chunk

	if chunk != nil {
		navigatorFor(chunk, s.gridded).add(s)
	}
}

// ReadyToBind reports whether the chunk and its neighbourhood are resolved
// enough for Bind to connect boundary edges.
func (s *WaypointSet) ReadyToBind() bool {
	c := s.chunk
	if c == nil {
		return false
	}
	if sp := c.Space(); sp != nil && sp.TouchesGridBoundary(c) {
		return true
	}
	for _, o := range c.Overlappers() {
		if !o.Loaded() {
			return false
		}
	}
	for _, p := range c.Portals() {
		if !p.Bound() || !p.Target().Loaded() {
			return false
		}
	}
	return true
}

// Bind connects every unconnected chunk-boundary edge to the matching
// waypoint set of the same girth in the chunk behind the boundary portal.
// It is a no-op until ReadyToBind and may be repeated as neighbours stream in.
func (s *WaypointSet) Bind() {
	if !s.ReadyToBind() {
		return
	}

	d := s.data
	for wi := range d.waypoints {
		wp := &d.waypoints[wi]
		for ei, e := range wp.Edges {
			if !e.AdjacentToChunk() {
				continue
			}
			edgeIndex := d.EdgeIndex(wp, ei)
			if _, ok := s.edgeLabels[edgeIndex]; ok {
				continue
			}
			s.bindEdge(wp, ei, edgeIndex)
		}
	}
	s.bound = true
}

func (s *WaypointSet) bindEdge(wp *Waypoint, ei, edgeIndex int) {
	a, b := s.data.EdgeEndpoints(wp, ei)
	mid := a.Add(b).Mul(0.5)

	probe := s.chunk.ToWorld(mgl32.Vec3{mid.X(), (wp.MinHeight+wp.MaxHeight)/2 + bindHeightRaise, mid.Y()})
	portal := s.chunk.FindPortal(probe, bindPortalTolerance)
	if portal == nil {
		// Steep waypoints can leave through a portal only at their top.
		probe = s.chunk.ToWorld(mgl32.Vec3{mid.X(), wp.MaxHeight + bindHeightRaise, mid.Y()})
		portal = s.chunk.FindPortal(probe, bindPortalTolerance)
	}
	if portal == nil || !portal.Bound() {
		return
	}

	other := portal.Target()
	if !other.Loaded() {
		return
	}
	nav := NavigatorOf(other)
	if nav == nil {
		return
	}

	local := other.ToLocal(probe.Add(portal.Normal().Mul(bindNudge)))
	res, ok := nav.Find(local, s.Girth(), true)
	if !ok || !res.Exact {
		if nav.HasGirth(s.Girth()) {
			slog.Error("no matching waypoint across portal",
				"chunk", s.chunk.ID(),
				"other", other.ID(),
				"girth", s.Girth(),
				"point", probe)
		}
		return
	}
	s.connect(res.Set, portal, edgeIndex)
}

func (s *WaypointSet) connect(to *WaypointSet, portal *space.Portal, edgeIndex int) {
	if i, ok := s.connIndex[to]; ok {
		if s.connections[i].Portal != portal {
			slog.Warn("waypoint sets connected through more than one portal, paths may be sub-optimal",
				"chunk", s.chunk.ID(),
				"other", to.chunk.ID(),
				"girth", s.Girth())
		}
	} else {
		s.connIndex[to] = len(s.connections)
		s.connections = append(s.connections, Connection{Set: to, Portal: portal})
		to.addBacklink(s)
	}
	s.edgeLabels[edgeIndex] = to
}

func (s *WaypointSet) addBacklink(from *WaypointSet) {
	s.backlinks = append(s.backlinks, from)
}

func (s *WaypointSet) removeBacklink(from *WaypointSet) {
	for i, b := range s.backlinks {
		if b == from {
			s.backlinks = append(s.backlinks[:i], s.backlinks[i+1:]...)
			return
		}
	}
}

// deleteConnection drops the connection to other and every edge label leading to it.
func (s *WaypointSet) deleteConnection(other *WaypointSet) {
	i, ok := s.connIndex[other]
	if !ok {
		return
	}
	s.connections = append(s.connections[:i], s.connections[i+1:]...)
	delete(s.connIndex, other)
	for j := i; j < len(s.connections); j++ {
		s.connIndex[s.connections[j].Set] = j
	}
	for edge, to := range s.edgeLabels {
		if to == other {
			delete(s.edgeLabels, edge)
		}
	}
}

// removeOthersConnections asks every set linking to s to forget it.
func (s *WaypointSet) removeOthersConnections() {
	for _, b := range s.backlinks {
		b.deleteConnection(s)
	}
	s.backlinks = nil
}

// removeOurConnections forgets every set s links to.
func (s *WaypointSet) removeOurConnections() {
	for _, c := range s.connections {
		c.Set.removeBacklink(s)
	}
	s.connections = nil
	clear(s.connIndex)
	clear(s.edgeLabels)
}
