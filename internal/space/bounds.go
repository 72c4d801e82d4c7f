package space

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// BoundingBox is an axis-aligned box. Start from EmptyBox when accumulating points.
type BoundingBox struct {
	Min, Max mgl32.Vec3
}

// EmptyBox returns a box that contains nothing and grows with AddPoint.
func EmptyBox() BoundingBox {
	inf := float32(math.Inf(1))
	return BoundingBox{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// AddPoint grows the box to include p.
func (b *BoundingBox) AddPoint(p mgl32.Vec3) {
	for i := range 3 {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

// Contains reports whether p lies inside the box (inclusive on both ends).
func (b BoundingBox) Contains(p mgl32.Vec3) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() <= b.Max.Y() &&
		p.Z() >= b.Min.Z() && p.Z() <= b.Max.Z()
}

// ContainsXZ reports whether p lies inside the box footprint, ignoring height.
func (b BoundingBox) ContainsXZ(p mgl32.Vec3) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() &&
		p.Z() >= b.Min.Z() && p.Z() <= b.Max.Z()
}

// ClampXZ moves p onto the nearest point of the box footprint.
func (b BoundingBox) ClampXZ(p mgl32.Vec3) mgl32.Vec3 {
	p[0] = mgl32.Clamp(p[0], b.Min.X(), b.Max.X())
	p[2] = mgl32.Clamp(p[2], b.Min.Z(), b.Max.Z())
	return p
}

// Centre returns the centre of the box.
func (b BoundingBox) Centre() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the edge lengths of the box.
func (b BoundingBox) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// Transformed returns the box enclosing all eight corners of b under m.
func (b BoundingBox) Transformed(m mgl32.Mat4) BoundingBox {
	out := EmptyBox()
	for i := range 8 {
		corner := b.Min
		if i&1 != 0 {
			corner[0] = b.Max.X()
		}
		if i&2 != 0 {
			corner[1] = b.Max.Y()
		}
		if i&4 != 0 {
			corner[2] = b.Max.Z()
		}
		out.AddPoint(mgl32.TransformCoordinate(corner, m))
	}
	return out
}
