package source

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/internal/mesh"
)

// OBJ reads Wavefront .obj files. Each "o" statement starts a sub-mesh;
// polygons are fan-triangulated and file normals are ignored.
type OBJ struct {
	Path string
}

// Name returns the file name without extension.
func (o *OBJ) Name() string { return baseName(o.Path) }

// SubMeshes parses the file.
func (o *OBJ) SubMeshes() ([]mesh.SubMesh, error) {
	f, err := os.Open(o.Path)
	if err != nil {
		return nil, fmt.Errorf("opening obj: %w", err)
	}
	defer f.Close()
	return DecodeOBJ(f)
}

type objObject struct {
	name  string
	faces [][3]uint32
	line  []int
}

// DecodeOBJ parses Wavefront OBJ text.
func DecodeOBJ(r io.Reader) ([]mesh.SubMesh, error) {
	var positions []mgl64.Vec3
	objects := []*objObject{{name: "default"}}
	cur := objects[0]

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: vertex needs 3 coordinates", ErrMalformed, lineNo)
			}
			var p mgl64.Vec3
			for i := 0; i < 3; i++ {
				c, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNo, err)
				}
				p[i] = c
			}
			positions = append(positions, p)

		case "o":
			name := strings.TrimSpace(strings.TrimPrefix(line, "o"))
			if len(cur.faces) == 0 {
				cur.name = name
				continue
			}
			cur = &objObject{name: name}
			objects = append(objects, cur)

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("%w: line %d: face needs 3 vertices", ErrMalformed, lineNo)
			}
			idx := make([]uint32, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				i, err := objIndex(tok, len(positions))
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNo, err)
				}
				idx = append(idx, i)
			}
			for k := 1; k+1 < len(idx); k++ {
				cur.faces = append(cur.faces, [3]uint32{idx[0], idx[k], idx[k+1]})
				cur.line = append(cur.line, lineNo)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading obj: %w", err)
	}

	for _, obj := range objects {
		for i, f := range obj.faces {
			for _, v := range f {
				if int(v) >= len(positions) {
					return nil, fmt.Errorf("%w: line %d: vertex %d not defined", ErrMalformed, obj.line[i], v+1)
				}
			}
		}
	}
	return objSubMeshes(positions, objects), nil
}

// objIndex resolves the position part of a "v", "v/vt", "v//vn" or
// "v/vt/vn" token to a zero-based index.
func objIndex(tok string, defined int) (uint32, error) {
	if slash := strings.IndexByte(tok, '/'); slash >= 0 {
		tok = tok[:slash]
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("bad index %q", tok)
	}
	switch {
	case n > 0 && n <= math.MaxUint32:
		return uint32(n - 1), nil
	case n < 0 && defined+n >= 0:
		return uint32(defined + n), nil
	default:
		return 0, fmt.Errorf("index %d out of range", n)
	}
}

func objSubMeshes(positions []mgl64.Vec3, objects []*objObject) []mesh.SubMesh {
	if len(positions) == 0 {
		return nil
	}

	var withFaces []*objObject
	for _, obj := range objects {
		if len(obj.faces) > 0 {
			withFaces = append(withFaces, obj)
		}
	}

	switch len(withFaces) {
	case 0:
		// Point cloud.
		return []mesh.SubMesh{{
			Name:     objects[0].name,
			Vertices: positions,
			Normals:  mesh.VertexNormals(positions, nil),
		}}
	case 1:
		obj := withFaces[0]
		return []mesh.SubMesh{{
			Name:     obj.name,
			Vertices: positions,
			Faces:    obj.faces,
			Normals:  mesh.VertexNormals(positions, obj.faces),
		}}
	}

	subs := make([]mesh.SubMesh, 0, len(withFaces))
	for _, obj := range withFaces {
		used := make(map[uint32]uint32)
		for _, f := range obj.faces {
			for _, v := range f {
				used[v] = 0
			}
		}
		order := make([]uint32, 0, len(used))
		for v := range used {
			order = append(order, v)
		}
		sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

		vertices := make([]mgl64.Vec3, len(order))
		for local, global := range order {
			used[global] = uint32(local)
			vertices[local] = positions[global]
		}
		faces := make([][3]uint32, len(obj.faces))
		for i, f := range obj.faces {
			faces[i] = [3]uint32{used[f[0]], used[f[1]], used[f[2]]}
		}
		subs = append(subs, mesh.SubMesh{
			Name:     obj.name,
			Vertices: vertices,
			Faces:    faces,
			Normals:  mesh.VertexNormals(vertices, faces),
		})
	}
	logger.Debug("obj split into objects", zap.Int("objects", len(subs)))
	return subs
}
