package cache

import (
	"bufio"
	"fmt"
	"os"

	"github.com/tinylib/msgp/msgp"

	"github.com/Faultbox/meshview/internal/mesh"
	"github.com/Faultbox/meshview/pkg/npz"
)

// FieldInfo describes one stored array.
type FieldInfo struct {
	Name  string
	DType string
	Shape []int
}

// Info summarizes a cache file without building GPU state.
type Info struct {
	Path      string
	Format    Format
	Legacy    bool
	Fields    []FieldInfo
	Vertices  int
	Faces     int
	Bounds    mesh.BoundingBox
	HasBounds bool
}

// Inspect reports the layout and sizes of a cache file.
func Inspect(path string) (*Info, error) {
	switch FormatFor(path) {
	case FormatTagged:
		return inspectTagged(path)
	case FormatCompressed:
		return inspectCompressed(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

func inspectTagged(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, corrupt(path, "", err)
	}
	defer f.Close()

	rec, haveBounds, err := decodeTagged(msgp.NewReader(bufio.NewReader(f)), path)
	if err != nil {
		return nil, err
	}
	info := &Info{
		Path:      path,
		Format:    FormatTagged,
		Legacy:    !haveBounds,
		Vertices:  len(rec.Vertices),
		Faces:     len(rec.Faces),
		HasBounds: haveBounds,
		Fields: []FieldInfo{
			{Name: fieldVertices, DType: "float64", Shape: []int{len(rec.Vertices), 3}},
			{Name: fieldFaces, DType: "uint32", Shape: []int{len(rec.Faces), 3}},
			{Name: fieldNormals, DType: "float64", Shape: []int{len(rec.Normals), 3}},
		},
	}
	if haveBounds {
		info.Bounds = rec.Bounds
		info.Fields = append(info.Fields,
			FieldInfo{Name: fieldMax, DType: "float64", Shape: []int{3}},
			FieldInfo{Name: fieldMin, DType: "float64", Shape: []int{3}},
		)
	} else {
		info.Bounds = mesh.BoundsOf(rec.Vertices)
	}
	return info, nil
}

func inspectCompressed(path string) (*Info, error) {
	a, err := npz.Open(path)
	if err != nil {
		return nil, corrupt(path, "", err)
	}
	defer a.Close()

	info := &Info{Path: path, Format: FormatCompressed}
	for _, name := range a.List() {
		h, err := a.Header(name)
		if err != nil {
			return nil, corrupt(path, name, err)
		}
		info.Fields = append(info.Fields, FieldInfo{Name: name, DType: h.Descr, Shape: h.Shape})
		if len(h.Shape) > 0 {
			switch name {
			case fieldVertices:
				info.Vertices = h.Shape[0]
			case fieldFaces:
				info.Faces = h.Shape[0]
			}
		}
	}
	info.HasBounds = a.Contains(fieldMax) && a.Contains(fieldMin)
	info.Legacy = !info.HasBounds
	if info.HasBounds {
		if info.Bounds.Max, err = readCorner(a, fieldMax); err != nil {
			return nil, corrupt(path, fieldMax, err)
		}
		if info.Bounds.Min, err = readCorner(a, fieldMin); err != nil {
			return nil, corrupt(path, fieldMin, err)
		}
	}
	return info, nil
}
