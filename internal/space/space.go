package space

import (
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Default vertical extent of outside chunks.
const (
	OutsideMinHeight = -500
	OutsideMaxHeight = 500
)

// Collider answers vertical (or arbitrary) ray queries against world geometry.
// Collide returns the distance from start to the first hit along start→end.
type Collider interface {
	Collide(start, end mgl32.Vec3) (float32, bool)
}

// Space is a streamed world made of an outside chunk grid plus indoor shells.
// Safe for concurrent use: chunks are added by loader goroutines and looked up
// by the simulation.
type Space struct {
	gridResolution float32
	minGridX       int
	minGridZ       int
	maxGridX       int
	maxGridZ       int

	mu       sync.RWMutex
	chunks   []*Chunk
	byID     map[string]*Chunk
	outside  map[[2]int]*Chunk
	collider Collider
}

// New creates an empty space whose outside grid spans cells
// [minGridX..maxGridX] × [minGridZ..maxGridZ] of gridResolution metres.
func New(gridResolution float32, minGridX, minGridZ, maxGridX, maxGridZ int) *Space {
	return &Space{
		gridResolution: gridResolution,
		minGridX:       minGridX,
		minGridZ:       minGridZ,
		maxGridX:       maxGridX,
		maxGridZ:       maxGridZ,
		byID:           make(map[string]*Chunk),
		outside:        make(map[[2]int]*Chunk),
	}
}

func (s *Space) GridResolution() float32 { return s.gridResolution }

// SetCollider installs the geometry used by Collide.
func (s *Space) SetCollider(c Collider) {
	s.mu.Lock()
	s.collider = c
	s.mu.Unlock()
}

// Collide casts a ray from start to end. Returns false when nothing is hit
// or no collider is installed.
func (s *Space) Collide(start, end mgl32.Vec3) (float32, bool) {
	s.mu.RLock()
	c := s.collider
	s.mu.RUnlock()
	if c == nil {
		return 0, false
	}
	return c.Collide(start, end)
}

// PointToGrid returns the outside grid cell containing world (x, z).
func (s *Space) PointToGrid(x, z float32) (int, int) {
	gx := int(math.Floor(float64(x / s.gridResolution)))
	gz := int(math.Floor(float64(z / s.gridResolution)))
	return gx, gz
}

// InGrid reports whether the grid cell is inside the space extent.
func (s *Space) InGrid(gx, gz int) bool {
	return gx >= s.minGridX && gx <= s.maxGridX && gz >= s.minGridZ && gz <= s.maxGridZ
}

// AddChunk registers c with the space. Outside chunks are indexed by grid cell
// (gx, gz); gx and gz are ignored for shells.
func (s *Space) AddChunk(c *Chunk, gx, gz int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[c.id]; exists {
		return fmt.Errorf("chunk %q already in space", c.id)
	}
	if c.outside {
		if !s.InGrid(gx, gz) {
			return fmt.Errorf("chunk %q grid cell (%d, %d) outside space", c.id, gx, gz)
		}
		s.outside[[2]int{gx, gz}] = c
	}
	c.space = s
	s.chunks = append(s.chunks, c)
	s.byID[c.id] = c
	return nil
}

// Chunk returns the chunk with the given id, or nil.
func (s *Space) Chunk(id string) *Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id]
}

// Chunks returns all chunks in insertion order.
func (s *Space) Chunks() []*Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Chunk(nil), s.chunks...)
}

// OutsideChunk returns the outside chunk at grid cell (gx, gz), or nil.
func (s *Space) OutsideChunk(gx, gz int) *Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outside[[2]int{gx, gz}]
}

// FindChunkFromPoint returns the loaded chunk containing p. Shells take
// precedence over the outside chunk they sit in.
func (s *Space) FindChunkFromPoint(p mgl32.Vec3) *Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.chunks {
		if c.outside || !c.Loaded() {
			continue
		}
		if c.worldBB.Contains(p) {
			return c
		}
	}

	gx, gz := s.PointToGrid(p.X(), p.Z())
	c := s.outside[[2]int{gx, gz}]
	if c == nil || !c.Loaded() {
		return nil
	}
	return c
}

// TouchesGridBoundary reports whether c is an outside chunk on the edge of the grid.
func (s *Space) TouchesGridBoundary(c *Chunk) bool {
	if !c.outside {
		return false
	}
	centre := c.Centre()
	gx, gz := s.PointToGrid(centre.X(), centre.Z())
	return gx == s.minGridX || gx == s.maxGridX || gz == s.minGridZ || gz == s.maxGridZ
}
