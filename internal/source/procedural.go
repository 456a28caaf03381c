package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/meshview/internal/mesh"
)

// DefaultCells is the marching cubes resolution along the longest axis.
const DefaultCells = 64

var shapeParams = map[string]int{
	"box":      3, // width, height, depth
	"sphere":   1, // radius
	"cylinder": 2, // height, radius
}

// Procedural generates a primitive solid and tessellates it with marching
// cubes. It is written as "shape:p1,p2,..." such as "box:2,1,1".
type Procedural struct {
	Shape  string
	Params []float64
	Cells  int
}

// IsProcedural reports whether s names a procedural shape.
func IsProcedural(s string) bool {
	shape, _, ok := strings.Cut(s, ":")
	_, known := shapeParams[shape]
	return ok && known
}

// ParseProcedural parses "shape:p1,p2,...".
func ParseProcedural(s string) (*Procedural, error) {
	shape, args, ok := strings.Cut(s, ":")
	want, known := shapeParams[shape]
	if !ok || !known {
		return nil, fmt.Errorf("%w: unknown shape %q", ErrUnsupportedFormat, s)
	}
	parts := strings.Split(args, ",")
	if len(parts) != want {
		return nil, fmt.Errorf("%w: %s takes %d parameters, got %d", ErrMalformed, shape, want, len(parts))
	}
	p := &Procedural{Shape: shape, Cells: DefaultCells}
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, shape, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("%w: %s: parameters must be positive", ErrMalformed, shape)
		}
		p.Params = append(p.Params, v)
	}
	return p, nil
}

// Name returns the shape description.
func (p *Procedural) Name() string {
	parts := make([]string, len(p.Params))
	for i, v := range p.Params {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return p.Shape + ":" + strings.Join(parts, ",")
}

func (p *Procedural) solid() (sdf.SDF3, error) {
	switch p.Shape {
	case "box":
		return sdf.Box3D(v3.Vec{X: p.Params[0], Y: p.Params[1], Z: p.Params[2]}, 0)
	case "sphere":
		return sdf.Sphere3D(p.Params[0])
	case "cylinder":
		return sdf.Cylinder3D(p.Params[0], p.Params[1], 0)
	default:
		return nil, fmt.Errorf("%w: unknown shape %q", ErrUnsupportedFormat, p.Shape)
	}
}

// SubMeshes tessellates the solid into a single welded sub-mesh.
func (p *Procedural) SubMeshes() ([]mesh.SubMesh, error) {
	s, err := p.solid()
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", p.Name(), err)
	}
	cells := p.Cells
	if cells <= 0 {
		cells = DefaultCells
	}

	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	w := newWelder()
	faces := make([][3]uint32, 0, len(triangles))
	for _, tri := range triangles {
		var c [3]mgl64.Vec3
		for j := 0; j < 3; j++ {
			c[j] = mgl64.Vec3{tri[j].X, tri[j].Y, tri[j].Z}
		}
		faces = w.triangle(faces, c[0], c[1], c[2])
	}
	return []mesh.SubMesh{w.subMesh(p.Name(), faces)}, nil
}
