package shader

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/engine/shader/glsl"
	"github.com/Faultbox/meshview/internal/logger"
)

var (
	// ErrUniformNotFound is returned by Set for names the linker dropped or
	// that were never declared.
	ErrUniformNotFound = errors.New("uniform not found")

	// ErrUnsupportedValue is returned by Set for values it cannot map to a
	// uniform type.
	ErrUnsupportedValue = errors.New("unsupported uniform value")
)

// ActiveUniform is a uniform reported by the linker.
type ActiveUniform struct {
	Name string
	Size int32
	Type string
}

// Program is a linked shader program with cached uniform locations.
type Program struct {
	ID        uint32
	Name      string
	Declared  map[string]glsl.Uniform
	locations map[string]int32
}

// Build compiles the named program, from dir when set and from the built-in
// sources otherwise.
func Build(name, dir string) (*Program, error) {
	src, err := glsl.Load(name, dir)
	if err != nil {
		return nil, err
	}
	return NewProgram(src)
}

// NewProgram compiles and links src.
func NewProgram(src glsl.Sources) (*Program, error) {
	id, err := CompileProgram(src.Vertex, src.Fragment)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", src.Name, err)
	}

	declared := glsl.ParseUniforms(src.Vertex)
	for k, v := range glsl.ParseUniforms(src.Fragment) {
		declared[k] = v
	}

	p := &Program{ID: id, Name: src.Name, Declared: declared, locations: make(map[string]int32)}
	active := p.ActiveUniforms()
	for _, u := range active {
		p.locations[u.Name] = GetUniform(id, u.Name)
	}
	logger.Debug("shader program created",
		zap.String("name", src.Name),
		zap.Uint32("program", id),
		zap.Int("uniforms", len(active)))
	return p, nil
}

// Use makes p the current program.
func (p *Program) Use() { gl.UseProgram(p.ID) }

// Release unbinds any program.
func (p *Program) Release() { gl.UseProgram(0) }

// Delete frees the program.
func (p *Program) Delete() {
	if p.ID != 0 {
		gl.DeleteProgram(p.ID)
		p.ID = 0
	}
}

// Location returns the cached location of an active uniform.
func (p *Program) Location(name string) (int32, bool) {
	loc, ok := p.locations[name]
	return loc, ok
}

// Set assigns a uniform on the current program, choosing the GL call from
// the value: int and bool map to 1i, float32 and float64 to 1f, slices and
// arrays of 2, 3 or 4 floats to vectors, 9 or 16 floats to matrices.
func (p *Program) Set(name string, value any) error {
	loc, ok := p.locations[name]
	if !ok {
		return fmt.Errorf("%w: %q in %s", ErrUniformNotFound, name, p.Name)
	}

	switch v := value.(type) {
	case int:
		gl.Uniform1i(loc, int32(v))
	case int32:
		gl.Uniform1i(loc, v)
	case bool:
		b := int32(0)
		if v {
			b = 1
		}
		gl.Uniform1i(loc, b)
	case float32:
		gl.Uniform1f(loc, v)
	case float64:
		gl.Uniform1f(loc, float32(v))
	case mgl32.Vec2:
		gl.Uniform2f(loc, v[0], v[1])
	case mgl32.Vec3:
		gl.Uniform3f(loc, v[0], v[1], v[2])
	case [3]float32:
		gl.Uniform3f(loc, v[0], v[1], v[2])
	case mgl32.Vec4:
		gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
	case mgl32.Mat3:
		gl.UniformMatrix3fv(loc, 1, false, &v[0])
	case mgl32.Mat4:
		gl.UniformMatrix4fv(loc, 1, false, &v[0])
	case []float32:
		return setFloats(loc, name, v)
	default:
		return fmt.Errorf("%w: %q has type %T", ErrUnsupportedValue, name, value)
	}
	return nil
}

func setFloats(loc int32, name string, v []float32) error {
	switch len(v) {
	case 1:
		gl.Uniform1f(loc, v[0])
	case 2:
		gl.Uniform2f(loc, v[0], v[1])
	case 3:
		gl.Uniform3f(loc, v[0], v[1], v[2])
	case 4:
		gl.Uniform4f(loc, v[0], v[1], v[2], v[3])
	case 9:
		gl.UniformMatrix3fv(loc, 1, false, &v[0])
	case 16:
		gl.UniformMatrix4fv(loc, 1, false, &v[0])
	default:
		return fmt.Errorf("%w: %q has %d components", ErrUnsupportedValue, name, len(v))
	}
	return nil
}

// ApplyDefaults sets every declared uniform that has a numeric initializer
// back to that value. The program must be current.
func (p *Program) ApplyDefaults() {
	for name, u := range p.Declared {
		var err error
		switch d := u.Default.(type) {
		case float32, []float32:
			err = p.Set(name, d)
		case glsl.Matrix:
			err = p.Set(name, d.Values)
		default:
			continue
		}
		if err != nil {
			logger.Debug("uniform default skipped", zap.String("uniform", name), zap.Error(err))
		}
	}
}

// ActiveUniforms lists the uniforms that survived linking.
func (p *Program) ActiveUniforms() []ActiveUniform {
	var count, maxLen int32
	gl.GetProgramiv(p.ID, gl.ACTIVE_UNIFORMS, &count)
	gl.GetProgramiv(p.ID, gl.ACTIVE_UNIFORM_MAX_LENGTH, &maxLen)
	if maxLen < 1 {
		maxLen = 1
	}

	out := make([]ActiveUniform, 0, count)
	buf := make([]uint8, maxLen)
	for i := int32(0); i < count; i++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(p.ID, uint32(i), maxLen, &length, &size, &xtype, &buf[0])
		out = append(out, ActiveUniform{
			Name: string(buf[:length]),
			Size: size,
			Type: TypeName(xtype),
		})
	}
	return out
}
