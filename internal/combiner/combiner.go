// Package combiner merges the sub-meshes of a source into one mesh record.
package combiner

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/internal/mesh"
	"github.com/Faultbox/meshview/internal/source"
)

// CombineFile opens path and combines its sub-meshes.
func CombineFile(path string) (*mesh.Record, error) {
	src, err := source.Open(path)
	if err != nil {
		return nil, err
	}
	return Combine(src)
}

// Combine loads every sub-mesh of src and concatenates them.
func Combine(src source.Source) (*mesh.Record, error) {
	start := time.Now()

	subs, err := src.SubMeshes()
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", src.Name(), err)
	}
	rec, err := CombineSubMeshes(subs)
	if err != nil {
		return nil, fmt.Errorf("combining %s: %w", src.Name(), err)
	}
	rec.Name = src.Name()

	logger.Debug("mesh combined",
		zap.String("source", src.Name()),
		zap.Int("submeshes", len(subs)),
		zap.Int("vertices", rec.VertexCount()),
		zap.Int("faces", rec.FaceCount()),
		zap.Duration("took", time.Since(start)))
	return rec, nil
}

// CombineSubMeshes concatenates vertices and normals in order and shifts
// each sub-mesh's face indices by the number of vertices before it. The
// bounds are the exact min and max over all combined vertices.
func CombineSubMeshes(subs []mesh.SubMesh) (*mesh.Record, error) {
	if len(subs) == 0 {
		return nil, mesh.ErrEmptySource
	}

	var nv, nf int
	for i := range subs {
		if err := subs[i].Validate(); err != nil {
			return nil, err
		}
		nv += len(subs[i].Vertices)
		nf += len(subs[i].Faces)
	}
	if uint64(nv) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d vertices exceed 32-bit indices", mesh.ErrInvalidMesh, nv)
	}

	rec := &mesh.Record{
		Vertices: make([]mgl64.Vec3, 0, nv),
		Faces:    make([][3]uint32, 0, nf),
		Normals:  make([]mgl64.Vec3, 0, nv),
	}
	for _, sub := range subs {
		offset := uint32(len(rec.Vertices))
		rec.Vertices = append(rec.Vertices, sub.Vertices...)
		rec.Normals = append(rec.Normals, sub.Normals...)
		for _, f := range sub.Faces {
			rec.Faces = append(rec.Faces, [3]uint32{f[0] + offset, f[1] + offset, f[2] + offset})
		}
	}
	rec.Bounds = mesh.BoundsOf(rec.Vertices)
	return rec, nil
}
