package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BoundingBox is an axis-aligned box. An empty box has Min above Max on
// every axis so that extending it by any point yields that point.
type BoundingBox struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// EmptyBounds returns the identity element for Union and Extend.
func EmptyBounds() BoundingBox {
	inf := math.Inf(1)
	return BoundingBox{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// BoundsOf returns the exact per-axis min and max of the given points.
func BoundsOf(points []mgl64.Vec3) BoundingBox {
	b := EmptyBounds()
	for _, p := range points {
		b.Extend(p)
	}
	return b
}

// IsEmpty reports whether the box contains no points.
func (b BoundingBox) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Extend grows the box to include p.
func (b *BoundingBox) Extend(p mgl64.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Union returns the smallest box containing both b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], o.Min[i])
		b.Max[i] = math.Max(b.Max[i], o.Max[i])
	}
	return b
}

// Contains reports whether p lies inside or on the box.
func (b BoundingBox) Contains(p mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Size returns the box extent along each axis, zero for an empty box.
func (b BoundingBox) Size() mgl64.Vec3 {
	if b.IsEmpty() {
		return mgl64.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box, the origin for an empty box.
func (b BoundingBox) Center() mgl64.Vec3 {
	if b.IsEmpty() {
		return mgl64.Vec3{}
	}
	return b.Min.Add(b.Max).Mul(0.5)
}

// MaxDimension returns the largest extent of the box.
func (b BoundingBox) MaxDimension() float64 {
	s := b.Size()
	return math.Max(s[0], math.Max(s[1], s[2]))
}
