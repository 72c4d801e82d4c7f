package space

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Portal is a convex planar opening in a chunk boundary leading to another chunk.
// Points are in world space; the normal points out of the owning chunk.
type Portal struct {
	owner  *Chunk
	target *Chunk
	points []mgl32.Vec3
	normal mgl32.Vec3
	centre mgl32.Vec3

	permissive bool
	activated  bool
}

// NewPortal creates an unbound portal over the given polygon.
// The polygon must be convex.
func NewPortal(points []mgl32.Vec3, normal mgl32.Vec3) *Portal {
	p := &Portal{
		points:     append([]mgl32.Vec3(nil), points...),
		normal:     normal.Normalize(),
		permissive: true,
	}
	for _, pt := range p.points {
		p.centre = p.centre.Add(pt)
	}
	if n := len(p.points); n > 0 {
		p.centre = p.centre.Mul(1 / float32(n))
	}
	return p
}

func (p *Portal) Owner() *Chunk         { return p.owner }
func (p *Portal) Target() *Chunk        { return p.target }
func (p *Portal) Points() []mgl32.Vec3  { return p.points }
func (p *Portal) Normal() mgl32.Vec3    { return p.normal }
func (p *Portal) Centre() mgl32.Vec3    { return p.centre }
func (p *Portal) Bound() bool           { return p.target != nil }
func (p *Portal) Bind(target *Chunk)    { p.target = target }
func (p *Portal) Permissive() bool      { return p.permissive }
func (p *Portal) SetPermissive(ok bool) { p.permissive = ok }

// Activated reports whether a dynamic blocker (door, gate) is attached to the portal.
func (p *Portal) Activated() bool      { return p.activated }
func (p *Portal) SetActivated(ok bool) { p.activated = ok }

// IsShellBoundary reports whether the portal separates an indoor chunk from an outdoor one.
func (p *Portal) IsShellBoundary() bool {
	if p.owner == nil || p.target == nil {
		return false
	}
	return p.owner.IsOutside() != p.target.IsOutside()
}

// EnclosesPoint reports whether p projects inside the portal polygon and is within
// tolerance of its plane. The returned distance is the absolute distance to the plane.
func (p *Portal) EnclosesPoint(pt mgl32.Vec3, tolerance float32) (float32, bool) {
	if len(p.points) < 3 {
		return 0, false
	}
	d := pt.Sub(p.points[0]).Dot(p.normal)
	if d < 0 {
		d = -d
	}
	if d > tolerance {
		return d, false
	}
	onPlane := pt.Sub(p.normal.Mul(pt.Sub(p.points[0]).Dot(p.normal)))

	// Either winding is accepted: the point is inside when it is on the same
	// side of every edge.
	var pos, neg bool
	prev := p.points[len(p.points)-1]
	for _, cur := range p.points {
		side := cur.Sub(prev).Cross(onPlane.Sub(prev)).Dot(p.normal)
		if side > 0.01 {
			pos = true
		} else if side < -0.01 {
			neg = true
		}
		prev = cur
	}
	return d, !(pos && neg)
}
