package space

import (
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// Chunk is one streamed cell of a space: either an outside (terrain) grid square
// or an indoor shell. Geometry attached to a chunk is kept in chunk-local space.
type Chunk struct {
	id        string
	space     *Space
	transform mgl32.Mat4
	inverse   mgl32.Mat4
	localBB   BoundingBox
	worldBB   BoundingBox
	outside   bool

	portals     []*Portal
	overlappers []*Chunk
	loaded      atomic.Bool

	mu     sync.Mutex
	caches map[any]any
}

// NewChunk creates an unloaded chunk. localBB is the chunk extent in local space.
func NewChunk(id string, transform mgl32.Mat4, localBB BoundingBox, outside bool) *Chunk {
	return &Chunk{
		id:        id,
		transform: transform,
		inverse:   transform.Inv(),
		localBB:   localBB,
		worldBB:   localBB.Transformed(transform),
		outside:   outside,
		caches:    make(map[any]any),
	}
}

func (c *Chunk) ID() string               { return c.id }
func (c *Chunk) Space() *Space            { return c.space }
func (c *Chunk) Transform() mgl32.Mat4    { return c.transform }
func (c *Chunk) LocalBB() BoundingBox     { return c.localBB }
func (c *Chunk) BoundingBox() BoundingBox { return c.worldBB }
func (c *Chunk) IsOutside() bool          { return c.outside }
func (c *Chunk) Portals() []*Portal       { return c.portals }
func (c *Chunk) Overlappers() []*Chunk    { return c.overlappers }
func (c *Chunk) Loaded() bool             { return c.loaded.Load() }
func (c *Chunk) SetLoaded(loaded bool)    { c.loaded.Store(loaded) }
func (c *Chunk) Centre() mgl32.Vec3       { return c.worldBB.Centre() }
func (c *Chunk) String() string           { return c.id }

// ToWorld converts a chunk-local point to world space.
func (c *Chunk) ToWorld(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(p, c.transform)
}

// ToLocal converts a world point to chunk-local space.
func (c *Chunk) ToLocal(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.TransformCoordinate(p, c.inverse)
}

// AddPortal attaches p to the chunk boundary.
func (c *Chunk) AddPortal(p *Portal) {
	p.owner = c
	c.portals = append(c.portals, p)
}

// AddOverlapper records a shell whose bounds overlap this outside chunk.
func (c *Chunk) AddOverlapper(o *Chunk) {
	c.overlappers = append(c.overlappers, o)
}

// Cache returns the chunk cache stored under key, creating it with create if absent.
// Caches are how per-chunk subsystems (navigation, collision) hang state off a chunk.
func (c *Chunk) Cache(key any, create func() any) any {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.caches[key]; ok {
		return v
	}
	if create == nil {
		return nil
	}
	v := create()
	c.caches[key] = v
	return v
}

// DropCache removes the cache stored under key.
func (c *Chunk) DropCache(key any) {
	c.mu.Lock()
	delete(c.caches, key)
	c.mu.Unlock()
}

// FindPortal returns the portal that best encloses the world point p, or nil.
// Among enclosing portals the one whose plane is closest to p wins.
func (c *Chunk) FindPortal(p mgl32.Vec3, tolerance float32) *Portal {
	var best *Portal
	bestDist := tolerance
	for _, portal := range c.portals {
		d, ok := portal.EnclosesPoint(p, tolerance)
		if !ok || d > bestDist {
			continue
		}
		best, bestDist = portal, d
	}
	return best
}
