package mesh

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySource is returned when a source yields no sub-meshes.
	ErrEmptySource = errors.New("mesh source contains no sub-meshes")

	// ErrInvalidMesh is matched by every *InvalidError.
	ErrInvalidMesh = errors.New("invalid mesh")
)

// InvalidError describes a record whose arrays are inconsistent.
// Face is -1 when the problem is not tied to a single face.
type InvalidError struct {
	Mesh        string
	Face        int
	Index       uint32
	VertexCount int
	Reason      string
}

func (e *InvalidError) Error() string {
	if e.Face >= 0 {
		return fmt.Sprintf("invalid mesh %q: face %d references vertex %d, mesh has %d vertices",
			e.Mesh, e.Face, e.Index, e.VertexCount)
	}
	return fmt.Sprintf("invalid mesh %q: %s", e.Mesh, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidMesh.
func (e *InvalidError) Unwrap() error { return ErrInvalidMesh }
