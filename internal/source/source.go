// Package source turns mesh files and procedural descriptions into
// sub-meshes ready to be combined.
package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/meshview/internal/cache"
	"github.com/Faultbox/meshview/internal/mesh"
)

var (
	// ErrUnsupportedFormat is returned by Open for unknown extensions.
	ErrUnsupportedFormat = errors.New("unsupported mesh format")

	// ErrMalformed is wrapped by every parse error of a source file.
	ErrMalformed = errors.New("malformed mesh source")
)

// Source yields the sub-meshes of one input.
type Source interface {
	// Name identifies the source in logs and becomes the record name.
	Name() string
	SubMeshes() ([]mesh.SubMesh, error)
}

// Extensions lists the file extensions Open understands.
var Extensions = []string{".obj", ".stl", ".gltf", ".glb", cache.TaggedExt, cache.CompressedExt}

// Open returns the source for path, chosen by extension. Paths with a
// procedural prefix such as "sphere:1" describe generated shapes.
func Open(path string) (Source, error) {
	if IsProcedural(path) {
		return ParseProcedural(path)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		return &OBJ{Path: path}, nil
	case ".stl":
		return &STL{Path: path}, nil
	case ".gltf", ".glb":
		return &GLTF{Path: path}, nil
	case cache.TaggedExt, cache.CompressedExt:
		return &Precombined{Path: path}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func baseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// welder merges bit-identical positions into shared vertices, keeping the
// order of first appearance.
type welder struct {
	index    map[mgl64.Vec3]uint32
	vertices []mgl64.Vec3
}

func newWelder() *welder {
	return &welder{index: make(map[mgl64.Vec3]uint32)}
}

func (w *welder) add(p mgl64.Vec3) uint32 {
	if i, ok := w.index[p]; ok {
		return i
	}
	i := uint32(len(w.vertices))
	w.index[p] = i
	w.vertices = append(w.vertices, p)
	return i
}

// triangle appends a face unless welding collapsed it.
func (w *welder) triangle(faces [][3]uint32, a, b, c mgl64.Vec3) [][3]uint32 {
	f := [3]uint32{w.add(a), w.add(b), w.add(c)}
	if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
		return faces
	}
	return append(faces, f)
}

func (w *welder) subMesh(name string, faces [][3]uint32) mesh.SubMesh {
	return mesh.SubMesh{
		Name:     name,
		Vertices: w.vertices,
		Faces:    faces,
		Normals:  mesh.VertexNormals(w.vertices, faces),
	}
}
