package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Validate checks that every face index is in range and that there is one
// normal per vertex.
func (r *Record) Validate() error {
	return validate(r.Name, r.Vertices, r.Faces, r.Normals)
}

// Validate applies the record checks to a sub-mesh.
func (s *SubMesh) Validate() error {
	return validate(s.Name, s.Vertices, s.Faces, s.Normals)
}

func validate(name string, vertices []mgl64.Vec3, faces [][3]uint32, normals []mgl64.Vec3) error {
	if len(normals) != len(vertices) {
		return &InvalidError{
			Mesh:        name,
			Face:        -1,
			VertexCount: len(vertices),
			Reason:      fmt.Sprintf("%d normals for %d vertices", len(normals), len(vertices)),
		}
	}
	n := uint64(len(vertices))
	for i, f := range faces {
		for _, idx := range f {
			if uint64(idx) >= n {
				return &InvalidError{Mesh: name, Face: i, Index: idx, VertexCount: len(vertices)}
			}
		}
	}
	return nil
}
