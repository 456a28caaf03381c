package source

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/internal/mesh"
)

// GLTF reads .gltf and .glb files. Every triangle or point primitive becomes
// a sub-mesh in mesh-local coordinates; node transforms are not applied.
type GLTF struct {
	Path string
}

// Name returns the file name without extension.
func (g *GLTF) Name() string { return baseName(g.Path) }

// SubMeshes opens the document and reads its primitives.
func (g *GLTF) SubMeshes() ([]mesh.SubMesh, error) {
	doc, err := gltf.Open(g.Path)
	if err != nil {
		return nil, fmt.Errorf("opening gltf: %w", err)
	}
	return DecodeGLTF(doc)
}

// DecodeGLTF extracts sub-meshes from an in-memory document.
func DecodeGLTF(doc *gltf.Document) ([]mesh.SubMesh, error) {
	var subs []mesh.SubMesh
	for mi, m := range doc.Meshes {
		for pi, prim := range m.Primitives {
			name := m.Name
			if name == "" {
				name = fmt.Sprintf("mesh%d", mi)
			}
			if len(m.Primitives) > 1 {
				name = fmt.Sprintf("%s.%d", name, pi)
			}

			sub, ok, err := decodePrimitive(doc, prim, name)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			if ok {
				subs = append(subs, sub)
			}
		}
	}
	return subs, nil
}

func decodePrimitive(doc *gltf.Document, prim *gltf.Primitive, name string) (mesh.SubMesh, bool, error) {
	if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != gltf.PrimitivePoints {
		logger.Debug("skipping primitive", zap.String("mesh", name), zap.Int("mode", int(prim.Mode)))
		return mesh.SubMesh{}, false, nil
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return mesh.SubMesh{}, false, nil
	}

	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return mesh.SubMesh{}, false, fmt.Errorf("reading positions: %w", err)
	}
	sub := mesh.SubMesh{Name: name, Vertices: make([]mgl64.Vec3, len(positions))}
	for i, p := range positions {
		sub.Vertices[i] = mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
	}

	if prim.Mode == gltf.PrimitiveTriangles {
		var indices []uint32
		if prim.Indices != nil {
			indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return mesh.SubMesh{}, false, fmt.Errorf("reading indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}
		if len(indices)%3 != 0 {
			return mesh.SubMesh{}, false, fmt.Errorf("%w: %d indices is not a multiple of 3", ErrMalformed, len(indices))
		}
		sub.Faces = make([][3]uint32, len(indices)/3)
		for i := range sub.Faces {
			sub.Faces[i] = [3]uint32{indices[3*i], indices[3*i+1], indices[3*i+2]}
		}
	}

	if nIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[nIdx], nil)
		if err != nil {
			return mesh.SubMesh{}, false, fmt.Errorf("reading normals: %w", err)
		}
		if len(normals) == len(positions) {
			sub.Normals = make([]mgl64.Vec3, len(normals))
			for i, n := range normals {
				sub.Normals[i] = mgl64.Vec3{float64(n[0]), float64(n[1]), float64(n[2])}
			}
		}
	}
	if sub.Normals == nil {
		sub.Normals = mesh.VertexNormals(sub.Vertices, sub.Faces)
	}
	return sub, true, nil
}
