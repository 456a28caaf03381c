// Package mesh holds the in-memory mesh record shared by the loaders, the
// on-disk caches and the GPU buffer collection.
package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SubMesh is one part of a multi-part source, indexed locally.
type SubMesh struct {
	Name     string
	Vertices []mgl64.Vec3
	Faces    [][3]uint32
	Normals  []mgl64.Vec3
}

// Record is a combined mesh: a vertex array, triangle faces indexing into it,
// one normal per vertex, and the axis-aligned bounds of the vertices.
type Record struct {
	Name     string
	Vertices []mgl64.Vec3
	Faces    [][3]uint32
	Normals  []mgl64.Vec3
	Bounds   BoundingBox
}

// VertexCount returns the number of vertices.
func (r *Record) VertexCount() int { return len(r.Vertices) }

// FaceCount returns the number of triangles.
func (r *Record) FaceCount() int { return len(r.Faces) }

// Records lets a single record be passed wherever a Sequence is accepted.
func (r *Record) Records() []*Record { return []*Record{r} }

// Clone returns a deep copy that shares no storage with r.
func (r *Record) Clone() *Record {
	return &Record{
		Name:     r.Name,
		Vertices: append([]mgl64.Vec3(nil), r.Vertices...),
		Faces:    append([][3]uint32(nil), r.Faces...),
		Normals:  append([]mgl64.Vec3(nil), r.Normals...),
		Bounds:   r.Bounds,
	}
}

// Equal reports whether both records hold bit-identical arrays and bounds.
// Names are not compared.
func (r *Record) Equal(o *Record) bool {
	if len(r.Vertices) != len(o.Vertices) || len(r.Faces) != len(o.Faces) || len(r.Normals) != len(o.Normals) {
		return false
	}
	for i := range r.Vertices {
		if !sameVec(r.Vertices[i], o.Vertices[i]) {
			return false
		}
	}
	for i := range r.Normals {
		if !sameVec(r.Normals[i], o.Normals[i]) {
			return false
		}
	}
	for i := range r.Faces {
		if r.Faces[i] != o.Faces[i] {
			return false
		}
	}
	return sameVec(r.Bounds.Min, o.Bounds.Min) && sameVec(r.Bounds.Max, o.Bounds.Max)
}

func sameVec(a, b mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}

// Sequence is anything that yields records in order.
type Sequence interface {
	Records() []*Record
}

// Set is an ordered group of records.
type Set []*Record

// Records returns the set itself.
func (s Set) Records() []*Record { return s }
