package cache

import (
	"compress/flate"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/meshview/internal/mesh"
	"github.com/Faultbox/meshview/pkg/npz"
)

// Array names inside a compressed cache.
const (
	fieldVertices = "vertices"
	fieldFaces    = "faces"
	fieldNormals  = "normals"
	fieldMax      = "max_tuple"
	fieldMin      = "min_tuple"
)

// SaveCompressed writes rec as a deflated .npz archive holding float64
// vertices, normals and corners and uint32 faces.
func SaveCompressed(path string, rec *mesh.Record) error {
	return writeFileAtomic(path, func(f *os.File) error {
		w := npz.NewWriter(f, flate.DefaultCompression)
		if err := w.WriteFloat64s(fieldVertices, []int{len(rec.Vertices), 3}, flattenVec3s(rec.Vertices)); err != nil {
			return err
		}
		if err := w.WriteUint32s(fieldFaces, []int{len(rec.Faces), 3}, flattenFaces(rec.Faces)); err != nil {
			return err
		}
		if err := w.WriteFloat64s(fieldNormals, []int{len(rec.Normals), 3}, flattenVec3s(rec.Normals)); err != nil {
			return err
		}
		if err := w.WriteFloat64s(fieldMax, []int{3}, rec.Bounds.Max[:]); err != nil {
			return err
		}
		if err := w.WriteFloat64s(fieldMin, []int{3}, rec.Bounds.Min[:]); err != nil {
			return err
		}
		return w.Close()
	})
}

// LoadCompressed reads a compressed cache. The corner arrays are optional;
// when both are absent the bounds are computed from the vertices.
func LoadCompressed(path string) (*mesh.Record, error) {
	a, err := npz.Open(path)
	if err != nil {
		return nil, corrupt(path, "", err)
	}
	defer a.Close()

	for _, field := range []string{fieldVertices, fieldFaces, fieldNormals} {
		if !a.Contains(field) {
			return nil, corrupt(path, field, ErrMissingField)
		}
	}

	rec := &mesh.Record{Name: recordName(path)}
	if rec.Vertices, err = readVec3Array(a, fieldVertices); err != nil {
		return nil, corrupt(path, fieldVertices, err)
	}
	if rec.Faces, err = readFaceArray(a); err != nil {
		return nil, corrupt(path, fieldFaces, err)
	}
	if rec.Normals, err = readVec3Array(a, fieldNormals); err != nil {
		return nil, corrupt(path, fieldNormals, err)
	}

	hasMax, hasMin := a.Contains(fieldMax), a.Contains(fieldMin)
	switch {
	case hasMax && hasMin:
		if rec.Bounds.Max, err = readCorner(a, fieldMax); err != nil {
			return nil, corrupt(path, fieldMax, err)
		}
		if rec.Bounds.Min, err = readCorner(a, fieldMin); err != nil {
			return nil, corrupt(path, fieldMin, err)
		}
	case hasMax:
		return nil, corrupt(path, fieldMin, ErrMissingField)
	case hasMin:
		return nil, corrupt(path, fieldMax, ErrMissingField)
	}
	return finish(path, rec, hasMax && hasMin)
}

// ReadVertices reads only the vertex array of a compressed cache.
func ReadVertices(path string) ([]mgl64.Vec3, error) {
	a, err := npz.Open(path)
	if err != nil {
		return nil, corrupt(path, "", err)
	}
	defer a.Close()

	if !a.Contains(fieldVertices) {
		return nil, corrupt(path, fieldVertices, ErrMissingField)
	}
	vs, err := readVec3Array(a, fieldVertices)
	if err != nil {
		return nil, corrupt(path, fieldVertices, err)
	}
	return vs, nil
}

// rowsOf3 checks that shape describes an (N, 3) array, or an empty one.
func rowsOf3(shape []int, n int) (int, error) {
	switch {
	case len(shape) == 2 && shape[1] == 3:
		return shape[0], nil
	case n == 0:
		return 0, nil
	default:
		return 0, fmt.Errorf("shape %v, want (N, 3)", shape)
	}
}

func readVec3Array(a *npz.Archive, name string) ([]mgl64.Vec3, error) {
	data, shape, err := a.ReadFloat64s(name)
	if err != nil {
		return nil, err
	}
	rows, err := rowsOf3(shape, len(data))
	if err != nil {
		return nil, err
	}
	out := make([]mgl64.Vec3, rows)
	for i := range out {
		copy(out[i][:], data[i*3:i*3+3])
	}
	return out, nil
}

func readFaceArray(a *npz.Archive) ([][3]uint32, error) {
	data, shape, err := a.ReadUint32s(fieldFaces)
	if err != nil {
		return nil, err
	}
	rows, err := rowsOf3(shape, len(data))
	if err != nil {
		return nil, err
	}
	out := make([][3]uint32, rows)
	for i := range out {
		copy(out[i][:], data[i*3:i*3+3])
	}
	return out, nil
}

func readCorner(a *npz.Archive, name string) (mgl64.Vec3, error) {
	var v mgl64.Vec3
	data, shape, err := a.ReadFloat64s(name)
	if err != nil {
		return v, err
	}
	if len(data) != 3 {
		return v, fmt.Errorf("shape %v, want 3 elements", shape)
	}
	copy(v[:], data)
	return v, nil
}

func flattenVec3s(vs []mgl64.Vec3) []float64 {
	out := make([]float64, 0, len(vs)*3)
	for _, v := range vs {
		out = append(out, v[0], v[1], v[2])
	}
	return out
}

func flattenFaces(fs [][3]uint32) []uint32 {
	out := make([]uint32, 0, len(fs)*3)
	for _, f := range fs {
		out = append(out, f[0], f[1], f[2])
	}
	return out
}
