package glsl

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseUniforms(t *testing.T) {
	src := `
uniform mat4 model;
uniform vec3 lightColor = vec3(1.0, 1.0, 1.0);
uniform float shininess = 32.0;
uniform mat2 basis = mat2(1, 0, 0, 1);
uniform vec2 bad = vec2(1.0);
uniform int count=3 ;
uniform bool enabled = true;
`
	got := ParseUniforms(src)

	tests := []struct {
		name     string
		wantType string
		want     any
	}{
		{"model", "mat4", nil},
		{"lightColor", "vec3", []float32{1, 1, 1}},
		{"shininess", "float", float32(32)},
		{"basis", "mat2", Matrix{Size: 2, Values: []float32{1, 0, 0, 1}}},
		{"bad", "vec2", "vec2(1.0)"},
		{"count", "int", float32(3)},
		{"enabled", "bool", "true"},
	}

	if len(got) != len(tests) {
		t.Errorf("found %d uniforms, want %d: %v", len(got), len(tests), got)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, ok := got[tt.name]
			if !ok {
				t.Fatalf("uniform %q not found", tt.name)
			}
			if u.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", u.Type, tt.wantType)
			}
			if !reflect.DeepEqual(u.Default, tt.want) {
				t.Errorf("Default = %#v, want %#v", u.Default, tt.want)
			}
		})
	}
}

func TestParseDefault(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"vec4(0.0, 0.5, 1.0, 1.0)", []float32{0, 0.5, 1, 1}},
		{"-2.5", float32(-2.5)},
		{".5f", float32(0.5)},
		{"mat3(1,0,0,0,1,0,0,0)", "mat3(1,0,0,0,1,0,0,0)"},
		{"someFunc()", "someFunc()"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseDefault(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseDefault(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoad_Builtin(t *testing.T) {
	for _, name := range []string{Phong, BlinnPhong, Lambertian, Line} {
		t.Run(name, func(t *testing.T) {
			src, err := Load(name, "")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !strings.HasPrefix(src.Vertex, "#version 410 core") || !strings.HasPrefix(src.Fragment, "#version 410 core") {
				t.Error("shader sources should target GLSL 4.10 core")
			}
			if _, ok := ParseUniforms(src.Vertex)["model"]; !ok {
				t.Error("vertex shader lacks a model uniform")
			}
		})
	}

	// Every lighting model reads the light and object colors.
	for _, name := range []string{Phong, BlinnPhong, Lambertian} {
		src, _ := Load(name, "")
		u := ParseUniforms(src.Fragment)
		for _, want := range []string{"lightPos", "lightColor", "objectColor"} {
			if _, ok := u[want]; !ok {
				t.Errorf("%s fragment shader lacks %s", name, want)
			}
		}
	}
}

func TestLoad_Dir(t *testing.T) {
	dir := t.TempDir()
	vert, frag := FileNames("toon")
	os.WriteFile(filepath.Join(dir, vert), []byte("// v"), 0644)
	os.WriteFile(filepath.Join(dir, frag), []byte("// f"), 0644)

	src, err := Load("toon", dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if src.Vertex != "// v" || src.Fragment != "// f" {
		t.Errorf("Load() = %+v", src)
	}

	if _, err := Load(Phong, dir); !errors.Is(err, ErrUnknownShader) {
		t.Errorf("missing file: error = %v, want ErrUnknownShader", err)
	}
	if _, err := Load("toon", ""); !errors.Is(err, ErrUnknownShader) {
		t.Errorf("unknown builtin: error = %v, want ErrUnknownShader", err)
	}
}
