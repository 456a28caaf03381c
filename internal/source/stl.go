package source

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/meshview/internal/mesh"
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50
)

// STL reads binary and ASCII stereolithography files. Coincident corners are
// welded into shared vertices; facet normals are recomputed.
type STL struct {
	Path string
}

// Name returns the file name without extension.
func (s *STL) Name() string { return baseName(s.Path) }

// SubMeshes parses the file.
func (s *STL) SubMeshes() ([]mesh.SubMesh, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading stl: %w", err)
	}
	return DecodeSTL(data, s.Name())
}

// DecodeSTL parses STL data. A binary file yields one sub-mesh; an ASCII
// file yields one per "solid" block. Solids without triangles are dropped.
func DecodeSTL(data []byte, name string) ([]mesh.SubMesh, error) {
	if isBinarySTL(data) {
		return decodeBinarySTL(data, name)
	}
	if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
		return decodeASCIISTL(bytes.NewReader(data))
	}
	return nil, fmt.Errorf("%w: not an STL file", ErrMalformed)
}

// isBinarySTL trusts the triangle count when it matches the file size, since
// binary headers are allowed to begin with "solid" too.
func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize+4 {
		return false
	}
	n := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	return uint64(len(data)) == stlHeaderSize+4+uint64(n)*stlTriangleSize
}

func decodeBinarySTL(data []byte, name string) ([]mesh.SubMesh, error) {
	n := int(binary.LittleEndian.Uint32(data[stlHeaderSize:]))
	if n == 0 {
		return nil, nil
	}

	w := newWelder()
	faces := make([][3]uint32, 0, n)
	off := stlHeaderSize + 4
	for i := 0; i < n; i++ {
		tri := data[off+12 : off+48] // skip facet normal
		var c [3]mgl64.Vec3
		for k := 0; k < 9; k++ {
			bits := binary.LittleEndian.Uint32(tri[k*4:])
			c[k/3][k%3] = float64(math.Float32frombits(bits))
		}
		faces = w.triangle(faces, c[0], c[1], c[2])
		off += stlTriangleSize
	}
	return []mesh.SubMesh{w.subMesh(name, faces)}, nil
}

func decodeASCIISTL(r io.Reader) ([]mesh.SubMesh, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	var subs []mesh.SubMesh
	var w *welder
	var faces [][3]uint32
	var name string
	var corners []mgl64.Vec3

	flush := func() {
		if w != nil && len(faces) > 0 {
			subs = append(subs, w.subMesh(name, faces))
		}
		w, faces, name = nil, nil, ""
	}

	for scanner.Scan() {
		switch scanner.Text() {
		case "solid":
			flush()
			w = newWelder()
			// Only the first word of the name is kept. An unnamed solid
			// swallows the first "facet" keyword, which carries no data.
			if scanner.Scan() && scanner.Text() != "facet" {
				name = scanner.Text()
			}
		case "endsolid":
			flush()
		case "outer":
			corners = corners[:0]
		case "vertex":
			if w == nil {
				return nil, fmt.Errorf("%w: vertex outside solid", ErrMalformed)
			}
			var p mgl64.Vec3
			for i := 0; i < 3; i++ {
				if !scanner.Scan() {
					return nil, fmt.Errorf("%w: truncated vertex", ErrMalformed)
				}
				v, err := strconv.ParseFloat(scanner.Text(), 64)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
				}
				p[i] = v
			}
			corners = append(corners, p)
		case "endloop":
			if len(corners) != 3 {
				return nil, fmt.Errorf("%w: facet with %d vertices", ErrMalformed, len(corners))
			}
			faces = w.triangle(faces, corners[0], corners[1], corners[2])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading stl: %w", err)
	}
	flush()
	return subs, nil
}
