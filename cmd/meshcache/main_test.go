package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/meshview/internal/cache"
)

const quadOBJ = `o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`

func writeOBJ(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quad.obj")
	if err := os.WriteFile(path, []byte(quadOBJ), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildInfoConvertVerify(t *testing.T) {
	src := writeOBJ(t)
	dir := filepath.Dir(src)
	var out bytes.Buffer

	if err := run("build", []string{"-format", "tagged", src}, &out); err != nil {
		t.Fatalf("build: %v", err)
	}
	mpk := filepath.Join(dir, "quad.mpk")
	if !strings.Contains(out.String(), "4 vertices, 2 faces") {
		t.Errorf("build output = %q", out.String())
	}

	out.Reset()
	if err := run("info", []string{mpk}, &out); err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{"Format:   tagged", "Vertices: 4", "Faces:    2", "Max:      1 1 0"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("info output missing %q:\n%s", want, out.String())
		}
	}

	npzPath := filepath.Join(dir, "quad.npz")
	out.Reset()
	if err := run("convert", []string{mpk, npzPath}, &out); err != nil {
		t.Fatalf("convert: %v", err)
	}
	a, err := cache.Load(mpk)
	if err != nil {
		t.Fatal(err)
	}
	b, err := cache.Load(npzPath)
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Error("converted cache differs")
	}

	out.Reset()
	if err := run("verify", []string{"-source", src, mpk, npzPath}, &out); err != nil {
		t.Fatalf("verify: %v\n%s", err, out.String())
	}
}

func TestVerifyReportsCorrupt(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "bad.npz")
	if err := os.WriteFile(bad, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := run("verify", []string{bad}, &out); err == nil {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(out.String(), "FAIL") {
		t.Errorf("output = %q", out.String())
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		cmd  string
		args []string
	}{
		{"build", nil},
		{"info", nil},
		{"convert", []string{"a.npz"}},
		{"verify", nil},
		{"bogus", nil},
	}
	for _, tt := range tests {
		err := run(tt.cmd, tt.args, &bytes.Buffer{})
		if !errors.Is(err, errUsage) {
			t.Errorf("%s: err = %v, want usage error", tt.cmd, err)
		}
	}
}

func TestBuildProceduralName(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	if err := run("build", []string{"-dir", dir, "sphere:1.5"}, &out); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sphere_1_5.npz")); err != nil {
		t.Errorf("expected sphere_1_5.npz: %v", err)
	}
}
