package source

import (
	"github.com/Faultbox/meshview/internal/cache"
	"github.com/Faultbox/meshview/internal/mesh"
)

// Precombined serves a cache file as a single sub-mesh, so cached records
// can be merged with other sources.
type Precombined struct {
	Path string
}

// Name returns the file name without extension.
func (p *Precombined) Name() string { return baseName(p.Path) }

// SubMeshes loads the cache.
func (p *Precombined) SubMeshes() ([]mesh.SubMesh, error) {
	rec, err := cache.Load(p.Path)
	if err != nil {
		return nil, err
	}
	return []mesh.SubMesh{{
		Name:     rec.Name,
		Vertices: rec.Vertices,
		Faces:    rec.Faces,
		Normals:  rec.Normals,
	}}, nil
}
