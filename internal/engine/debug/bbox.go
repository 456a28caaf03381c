// Package debug provides overlay geometry and frame capture.
package debug

import "github.com/Faultbox/meshview/internal/mesh"

// BBoxWireframeVertexCount is the number of vertices for a bbox wireframe (12 edges × 2).
const BBoxWireframeVertexCount = 24

// BBoxWireframe returns line-list vertices, [x, y, z] per vertex, for the
// edges of b expanded by padding on every side. An empty box yields nil.
func BBoxWireframe(b mesh.BoundingBox, padding float32) []float32 {
	if b.IsEmpty() {
		return nil
	}
	minX := float32(b.Min[0]) - padding
	minY := float32(b.Min[1]) - padding
	minZ := float32(b.Min[2]) - padding
	maxX := float32(b.Max[0]) + padding
	maxY := float32(b.Max[1]) + padding
	maxZ := float32(b.Max[2]) + padding

	return []float32{
		// Bottom face
		minX, minY, minZ, maxX, minY, minZ,
		maxX, minY, minZ, maxX, minY, maxZ,
		maxX, minY, maxZ, minX, minY, maxZ,
		minX, minY, maxZ, minX, minY, minZ,
		// Top face
		minX, maxY, minZ, maxX, maxY, minZ,
		maxX, maxY, minZ, maxX, maxY, maxZ,
		maxX, maxY, maxZ, minX, maxY, maxZ,
		minX, maxY, maxZ, minX, maxY, minZ,
		// Vertical edges
		minX, minY, minZ, minX, maxY, minZ,
		maxX, minY, minZ, maxX, maxY, minZ,
		maxX, minY, maxZ, maxX, maxY, maxZ,
		minX, minY, maxZ, minX, maxY, maxZ,
	}
}
