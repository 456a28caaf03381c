// Package camera provides the orbit camera used to inspect meshes.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshview/internal/mesh"
)

// Interaction constants.
const (
	DegreesPerPixel = 0.5
	PanPerPixel     = 0.01
	ZoomStep        = 0.1
	MinScale        = 0.001
	MaxScale        = 1000.0

	// Distance keeps the model in front of the eye.
	Distance = 5.0
	// FitSize is the extent, in world units, a fitted mesh spans.
	FitSize = 5.0
)

// OrbitCamera rotates, pans and scales the model in front of a fixed eye at
// the origin looking down -Z.
type OrbitCamera struct {
	// Rotation around X and Y, degrees
	Pitch, Yaw float32

	// Screen-space translation
	PanX, PanY float32

	Scale  float32
	Center mgl32.Vec3

	FOV  float32 // vertical, degrees
	Near float32
	Far  float32
}

// NewOrbitCamera creates a camera with unit scale.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Scale: 1,
		FOV:   45,
		Near:  0.1,
		Far:   1000,
	}
}

// Rotate turns the model by a mouse drag of dx, dy pixels.
func (c *OrbitCamera) Rotate(dx, dy float32) {
	c.Yaw += dx * DegreesPerPixel
	c.Pitch += dy * DegreesPerPixel
}

// Pan moves the model by a mouse drag of dx, dy pixels. Screen y grows
// downward.
func (c *OrbitCamera) Pan(dx, dy float32) {
	c.PanX += dx * PanPerPixel
	c.PanY -= dy * PanPerPixel
}

// Zoom scales by 1+steps*ZoomStep per wheel event.
func (c *OrbitCamera) Zoom(steps float32) {
	f := 1 + steps*ZoomStep
	if f <= 0 {
		f = MinScale
	}
	c.Scale = clamp(c.Scale*f, MinScale, MaxScale)
}

// FitToBounds centers the box and scales it to span FitSize units. Empty or
// degenerate boxes reset the scale to 1.
func (c *OrbitCamera) FitToBounds(b mesh.BoundingBox) {
	c.Pitch, c.Yaw, c.PanX, c.PanY = 0, 0, 0, 0
	if b.IsEmpty() {
		c.Center = mgl32.Vec3{}
		c.Scale = 1
		return
	}
	ctr := b.Center()
	c.Center = mgl32.Vec3{float32(ctr[0]), float32(ctr[1]), float32(ctr[2])}
	d := b.MaxDimension()
	if d <= 0 || math.IsInf(d, 0) || math.IsNaN(d) {
		c.Scale = 1
		return
	}
	c.Scale = clamp(float32(FitSize/d), MinScale, MaxScale)
}

// ModelMatrix returns T(pan, -Distance) * Rx * Ry * S * T(-center).
func (c *OrbitCamera) ModelMatrix() mgl32.Mat4 {
	return mgl32.Translate3D(c.PanX, c.PanY, -Distance).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(c.Pitch))).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(c.Yaw))).
		Mul4(mgl32.Scale3D(c.Scale, c.Scale, c.Scale)).
		Mul4(mgl32.Translate3D(-c.Center[0], -c.Center[1], -c.Center[2]))
}

// ViewMatrix returns the identity: the eye sits at the origin.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.Ident4()
}

// ViewPos returns the eye position in world space.
func (c *OrbitCamera) ViewPos() mgl32.Vec3 {
	return mgl32.Vec3{}
}

// ProjectionMatrix returns the perspective projection for the given
// width/height ratio.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
