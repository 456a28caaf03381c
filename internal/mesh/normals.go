package mesh

import "github.com/go-gl/mathgl/mgl64"

// VertexNormals computes one normal per vertex by summing the face normals
// of every incident triangle. Each face normal is weighted by its area.
// Vertices with no non-degenerate incident face get (0, 1, 0).
// Faces with out-of-range indices are skipped.
func VertexNormals(vertices []mgl64.Vec3, faces [][3]uint32) []mgl64.Vec3 {
	sums := make([]mgl64.Vec3, len(vertices))
	n := uint64(len(vertices))
	for _, f := range faces {
		if uint64(f[0]) >= n || uint64(f[1]) >= n || uint64(f[2]) >= n {
			continue
		}
		v0 := vertices[f[0]]
		fn := vertices[f[1]].Sub(v0).Cross(vertices[f[2]].Sub(v0))
		for _, idx := range f {
			sums[idx] = sums[idx].Add(fn)
		}
	}
	for i := range sums {
		sums[i] = normalize(sums[i])
	}
	return sums
}

// FaceNormal returns the unit normal of triangle f, or (0, 1, 0) if the
// triangle is degenerate.
func FaceNormal(vertices []mgl64.Vec3, f [3]uint32) mgl64.Vec3 {
	v0 := vertices[f[0]]
	return normalize(vertices[f[1]].Sub(v0).Cross(vertices[f[2]].Sub(v0)))
}

func normalize(v mgl64.Vec3) mgl64.Vec3 {
	length := v.Len()
	if length < 1e-12 {
		return mgl64.Vec3{0, 1, 0}
	}
	return v.Mul(1 / length)
}
