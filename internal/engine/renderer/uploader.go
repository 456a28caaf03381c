package renderer

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/meshview/internal/engine/gpubuf"
	"github.com/Faultbox/meshview/internal/mesh"
)

// ErrGL is wrapped around GL error codes raised during uploads.
var ErrGL = errors.New("opengl error")

// GLUploader creates one VAO with position, normal and index buffers per
// record. It must be used on the thread that owns the GL context.
type GLUploader struct{}

// Upload implements gpubuf.Uploader.
func (GLUploader) Upload(rec *mesh.Record) (gpubuf.Handles, error) {
	var h gpubuf.Handles
	positions := flattenVec3s(rec.Vertices)
	normals := flattenVec3s(rec.Normals)
	indices := flattenFaces(rec.Faces)

	gl.GenVertexArrays(1, &h.VertexArray)
	gl.BindVertexArray(h.VertexArray)

	h.VertexBuffer = arrayBuffer(0, positions)
	if len(normals) > 0 {
		h.NormalBuffer = arrayBuffer(1, normals)
	} else {
		gl.DisableVertexAttribArray(1)
		gl.VertexAttrib3f(1, 0, 1, 0)
	}

	if len(indices) > 0 {
		gl.GenBuffers(1, &h.IndexBuffer)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, h.IndexBuffer)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, unsafe.Pointer(&indices[0]), gl.STATIC_DRAW)
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		GLUploader{}.Release(h)
		return gpubuf.Handles{}, fmt.Errorf("%w 0x%04x", ErrGL, code)
	}
	return h, nil
}

// Release implements gpubuf.Uploader.
func (GLUploader) Release(h gpubuf.Handles) {
	for _, buf := range []uint32{h.VertexBuffer, h.NormalBuffer, h.IndexBuffer} {
		if buf != 0 {
			gl.DeleteBuffers(1, &buf)
		}
	}
	if h.VertexArray != 0 {
		gl.DeleteVertexArrays(1, &h.VertexArray)
	}
}

// arrayBuffer uploads xyz triples and binds them to the attribute location
// of the currently bound VAO.
func arrayBuffer(location uint32, data []float32) uint32 {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, unsafe.Pointer(&data[0]), gl.STATIC_DRAW)
	}
	gl.VertexAttribPointer(location, 3, gl.FLOAT, false, 3*4, nil)
	gl.EnableVertexAttribArray(location)
	return vbo
}

func flattenVec3s(vs []mgl64.Vec3) []float32 {
	out := make([]float32, 0, len(vs)*3)
	for _, v := range vs {
		out = append(out, float32(v[0]), float32(v[1]), float32(v[2]))
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
