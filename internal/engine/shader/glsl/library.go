// Package glsl holds the built-in shader sources and parses uniform
// declarations out of GLSL text.
package glsl

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed *.glsl
var builtin embed.FS

// Built-in programs.
const (
	Phong      = "phong"
	BlinnPhong = "blinn_phong"
	Lambertian = "lambertian"
	Line       = "line"
)

// ErrUnknownShader is returned for names with no sources.
var ErrUnknownShader = errors.New("unknown shader")

// Sources is one vertex and fragment shader pair.
type Sources struct {
	Name     string
	Vertex   string
	Fragment string
}

// FileNames returns the vertex and fragment file names for a program.
func FileNames(name string) (vert, frag string) {
	return name + "_vertex_shader.glsl", name + "_fragment_shader.glsl"
}

// Load returns the sources of the named program. With a non-empty dir the
// files are read from there; otherwise the built-in copies are used.
func Load(name, dir string) (Sources, error) {
	vertName, fragName := FileNames(name)
	read := func(file string) ([]byte, error) {
		return builtin.ReadFile(file)
	}
	if dir != "" {
		read = func(file string) ([]byte, error) {
			return os.ReadFile(filepath.Join(dir, file))
		}
	}

	vert, err := read(vertName)
	if err != nil {
		return Sources{}, wrapMissing(name, err)
	}
	frag, err := read(fragName)
	if err != nil {
		return Sources{}, wrapMissing(name, err)
	}
	return Sources{Name: name, Vertex: string(vert), Fragment: string(frag)}, nil
}

func wrapMissing(name string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w %q: %v", ErrUnknownShader, name, err)
	}
	return fmt.Errorf("reading shader %q: %w", name, err)
}
