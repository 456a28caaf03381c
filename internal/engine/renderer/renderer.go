// Package renderer provides OpenGL rendering functionality.
package renderer

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/engine/camera"
	"github.com/Faultbox/meshview/internal/engine/debug"
	"github.com/Faultbox/meshview/internal/engine/gpubuf"
	"github.com/Faultbox/meshview/internal/engine/shader"
	"github.com/Faultbox/meshview/internal/engine/shader/glsl"
	"github.com/Faultbox/meshview/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width       int
	Height      int
	Shader      string // lighting model
	ShaderDir   string // empty uses the built-in sources
	Background  [3]float32
	LightPos    [3]float32
	LightColor  [3]float32
	ObjectColor [3]float32
	PointSize   float32
}

// Renderer draws a gpubuf.Collection with one lighting program and an
// optional bounding box overlay.
type Renderer struct {
	config Config

	program *shader.Program
	lines   *shader.Program

	bboxVAO uint32
	bboxVBO uint32
	bboxLen int32
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{config: cfg}
	if r.config.PointSize <= 0 {
		r.config.PointSize = 2
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	logger.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.String("glsl", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	bg := cfg.Background
	gl.ClearColor(bg[0], bg[1], bg[2], 1.0)

	if err := r.SetShader(cfg.Shader); err != nil {
		return nil, err
	}
	var err error
	r.lines, err = shader.Build(glsl.Line, cfg.ShaderDir)
	if err != nil {
		// Custom directories may omit the overlay shader.
		r.lines, err = shader.Build(glsl.Line, "")
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("failed to create line shader: %w", err)
		}
	}

	gl.GenVertexArrays(1, &r.bboxVAO)
	gl.GenBuffers(1, &r.bboxVBO)
	gl.BindVertexArray(r.bboxVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.bboxVBO)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(0)
	gl.BindVertexArray(0)

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// SetShader swaps the lighting program. On failure the current program is
// kept.
func (r *Renderer) SetShader(name string) error {
	p, err := shader.Build(name, r.config.ShaderDir)
	if err != nil {
		return fmt.Errorf("failed to create shader program: %w", err)
	}
	if r.program != nil {
		r.program.Delete()
	}
	p.Use()
	p.ApplyDefaults()
	p.Release()
	r.program = p
	r.config.Shader = name
	logger.Info("shader selected", zap.String("shader", name))
	return nil
}

// Shader returns the active lighting program name.
func (r *Renderer) Shader() string { return r.config.Shader }

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	logger.Info("closing renderer")
	if r.bboxVAO != 0 {
		gl.DeleteVertexArrays(1, &r.bboxVAO)
	}
	if r.bboxVBO != 0 {
		gl.DeleteBuffers(1, &r.bboxVBO)
	}
	if r.program != nil {
		r.program.Delete()
	}
	if r.lines != nil {
		r.lines.Delete()
	}
}

// Resize handles window resize.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	logger.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Aspect returns the viewport width/height ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// Draw clears the frame and draws every uploaded record in mode. Records
// with no faces are drawn as points.
func (r *Renderer) Draw(coll *gpubuf.Collection, cam *camera.OrbitCamera, mode gpubuf.DrawMode, showBBox bool) {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	if coll.Len() == 0 {
		return
	}

	model := cam.ModelMatrix()
	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix(r.Aspect())

	p := r.program
	p.Use()
	r.set(p, "model", model)
	r.set(p, "view", view)
	r.set(p, "projection", proj)
	r.set(p, "lightPos", mgl32.Vec3(r.config.LightPos))
	r.set(p, "viewPos", cam.ViewPos())
	r.set(p, "lightColor", mgl32.Vec3(r.config.LightColor))
	r.set(p, "objectColor", mgl32.Vec3(r.config.ObjectColor))

	switch mode {
	case gpubuf.ModeWireframe:
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
	case gpubuf.ModePoint:
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.POINT)
	default:
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
	}
	gl.PointSize(r.config.PointSize)

	coll.Each(func(_ int, it gpubuf.Item) {
		gl.BindVertexArray(it.Handles.VertexArray)
		if it.FaceCount == 0 {
			gl.DrawArrays(gl.POINTS, 0, int32(it.VertexCount))
			return
		}
		gl.DrawElements(gl.TRIANGLES, int32(it.FaceCount*3), gl.UNSIGNED_INT, nil)
	})
	gl.BindVertexArray(0)
	gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)

	if showBBox {
		r.drawBBox(coll, model, view, proj)
	}
	p.Release()
}

func (r *Renderer) drawBBox(coll *gpubuf.Collection, model, view, proj mgl32.Mat4) {
	verts := debug.BBoxWireframe(coll.Bounds(), 0)
	if len(verts) == 0 {
		return
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, r.bboxVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, unsafe.Pointer(&verts[0]), gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	r.bboxLen = int32(len(verts) / 3)

	r.lines.Use()
	r.set(r.lines, "model", model)
	r.set(r.lines, "view", view)
	r.set(r.lines, "projection", proj)
	gl.BindVertexArray(r.bboxVAO)
	gl.DrawArrays(gl.LINES, 0, r.bboxLen)
	gl.BindVertexArray(0)
}

// set assigns a uniform, ignoring ones the program does not use.
func (r *Renderer) set(p *shader.Program, name string, value any) {
	if _, ok := p.Location(name); !ok {
		return
	}
	if err := p.Set(name, value); err != nil {
		logger.Warn("failed to set uniform", zap.String("uniform", name), zap.Error(err))
	}
}

// ReadPixels returns the current back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels, w, h
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&pixels[0]))
	return pixels, w, h
}
