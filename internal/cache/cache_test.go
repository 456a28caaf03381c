package cache

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tinylib/msgp/msgp"

	"github.com/Faultbox/meshview/internal/mesh"
	"github.com/Faultbox/meshview/pkg/npz"
)

// sampleRecord returns two triangles with awkward float values.
func sampleRecord() *mesh.Record {
	v := []mgl64.Vec3{
		{0, 0, 0},
		{1.0 / 3.0, -2.5e-300, math.Pi},
		{-7, 1e300, 0.1},
		{math.Nextafter(1, 2), 4, math.Copysign(0, -1)},
	}
	f := [][3]uint32{{0, 1, 2}, {2, 1, 3}}
	return &mesh.Record{
		Vertices: v,
		Faces:    f,
		Normals:  mesh.VertexNormals(v, f),
		Bounds:   mesh.BoundsOf(v),
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		rec  *mesh.Record
	}{
		{"tagged", TaggedExt, sampleRecord()},
		{"compressed", CompressedExt, sampleRecord()},
		{"tagged empty", TaggedExt, &mesh.Record{Bounds: mesh.EmptyBounds()}},
		{"compressed empty", CompressedExt, &mesh.Record{Bounds: mesh.EmptyBounds()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "model"+tt.ext)
			if err := Save(path, tt.rec); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if !got.Equal(tt.rec) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, tt.rec)
			}
			if got.Name != "model" {
				t.Errorf("Name = %q, want %q", got.Name, "model")
			}
		})
	}
}

func TestRoundTrip_BoundsKeptVerbatim(t *testing.T) {
	// Stored corners win over recomputation, even when they are loose.
	rec := sampleRecord()
	rec.Bounds.Max = mgl64.Vec3{100, 100, 100}

	for _, ext := range []string{TaggedExt, CompressedExt} {
		path := filepath.Join(t.TempDir(), "loose"+ext)
		if err := Save(path, rec); err != nil {
			t.Fatalf("Save(%s) error = %v", ext, err)
		}
		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", ext, err)
		}
		if got.Bounds != rec.Bounds {
			t.Errorf("%s: Bounds = %v, want %v", ext, got.Bounds, rec.Bounds)
		}
	}
}

func TestLoadTagged_Legacy(t *testing.T) {
	rec := sampleRecord()
	var buf bytes.Buffer
	if err := encodeTagged(&buf, rec, taggedLegacyFields); err != nil {
		t.Fatalf("encodeTagged() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "legacy.mpk")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadTagged(path)
	if err != nil {
		t.Fatalf("LoadTagged() error = %v", err)
	}
	if !got.Equal(rec) {
		t.Errorf("legacy load mismatch")
	}
	if got.Bounds != mesh.BoundsOf(rec.Vertices) {
		t.Errorf("legacy bounds = %v, want computed", got.Bounds)
	}

	info, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if !info.Legacy || info.HasBounds || len(info.Fields) != 3 {
		t.Errorf("Inspect() = %+v, want legacy layout", info)
	}
}

func TestLoadCompressed_Legacy(t *testing.T) {
	rec := sampleRecord()
	path := filepath.Join(t.TempDir(), "legacy.npz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := npz.NewWriter(f, flate.BestSpeed)
	w.WriteFloat64s(fieldVertices, []int{len(rec.Vertices), 3}, flattenVec3s(rec.Vertices))
	w.WriteUint32s(fieldFaces, []int{len(rec.Faces), 3}, flattenFaces(rec.Faces))
	w.WriteFloat64s(fieldNormals, []int{len(rec.Normals), 3}, flattenVec3s(rec.Normals))
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	got, err := LoadCompressed(path)
	if err != nil {
		t.Fatalf("LoadCompressed() error = %v", err)
	}
	if !got.Equal(rec) {
		t.Errorf("legacy load mismatch")
	}

	vs, err := ReadVertices(path)
	if err != nil {
		t.Fatalf("ReadVertices() error = %v", err)
	}
	if len(vs) != len(rec.Vertices) || vs[1] != rec.Vertices[1] {
		t.Errorf("ReadVertices() = %v", vs)
	}
}

func writeTaggedRaw(t *testing.T, write func(w *msgp.Writer)) string {
	t.Helper()
	var buf bytes.Buffer
	mw := msgp.NewWriter(&buf)
	write(mw)
	if err := mw.Flush(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "bad.mpk")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTagged_Corrupt(t *testing.T) {
	var full bytes.Buffer
	if err := EncodeTagged(&full, sampleRecord()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		path      func(t *testing.T) string
		wantField string
	}{
		{
			name: "truncated",
			path: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "trunc.mpk")
				os.WriteFile(p, full.Bytes()[:full.Len()/2], 0644)
				return p
			},
			wantField: "normals",
		},
		{
			name: "four fields",
			path: func(t *testing.T) string {
				return writeTaggedRaw(t, func(w *msgp.Writer) {
					w.WriteArrayHeader(4)
				})
			},
		},
		{
			name: "not an array",
			path: func(t *testing.T) string {
				return writeTaggedRaw(t, func(w *msgp.Writer) {
					w.WriteString("mesh")
				})
			},
		},
		{
			name: "two component vertex",
			path: func(t *testing.T) string {
				return writeTaggedRaw(t, func(w *msgp.Writer) {
					w.WriteArrayHeader(3)
					w.WriteArrayHeader(1)
					w.WriteArrayHeader(2)
					w.WriteFloat64(1)
					w.WriteFloat64(2)
				})
			},
			wantField: "vertices",
		},
		{
			name: "face out of range",
			path: func(t *testing.T) string {
				return writeTaggedRaw(t, func(w *msgp.Writer) {
					w.WriteArrayHeader(3)
					w.WriteArrayHeader(0)
					w.WriteArrayHeader(1)
					w.WriteArrayHeader(3)
					w.WriteUint32(0)
					w.WriteUint32(1)
					w.WriteUint32(2)
					w.WriteArrayHeader(0)
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTagged(tt.path(t))
			if !errors.Is(err, ErrCorrupt) {
				t.Fatalf("LoadTagged() error = %v, want ErrCorrupt", err)
			}
			var ce *CorruptError
			if !errors.As(err, &ce) {
				t.Fatalf("error %T is not *CorruptError", err)
			}
			if tt.wantField != "" && ce.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ce.Field, tt.wantField)
			}
		})
	}
}

func TestLoadCompressed_Corrupt(t *testing.T) {
	rec := sampleRecord()
	build := func(t *testing.T, write func(w *npz.Writer)) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "bad.npz")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		w := npz.NewWriter(f, flate.BestSpeed)
		write(w)
		w.Close()
		f.Close()
		return path
	}

	tests := []struct {
		name      string
		path      func(t *testing.T) string
		wantField string
	}{
		{
			name: "not a zip",
			path: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "garbage.npz")
				os.WriteFile(p, []byte("definitely not a zip archive"), 0644)
				return p
			},
		},
		{
			name: "missing faces",
			path: func(t *testing.T) string {
				return build(t, func(w *npz.Writer) {
					w.WriteFloat64s(fieldVertices, []int{len(rec.Vertices), 3}, flattenVec3s(rec.Vertices))
					w.WriteFloat64s(fieldNormals, []int{len(rec.Normals), 3}, flattenVec3s(rec.Normals))
				})
			},
			wantField: fieldFaces,
		},
		{
			name: "only one corner",
			path: func(t *testing.T) string {
				return build(t, func(w *npz.Writer) {
					w.WriteFloat64s(fieldVertices, []int{len(rec.Vertices), 3}, flattenVec3s(rec.Vertices))
					w.WriteUint32s(fieldFaces, []int{len(rec.Faces), 3}, flattenFaces(rec.Faces))
					w.WriteFloat64s(fieldNormals, []int{len(rec.Normals), 3}, flattenVec3s(rec.Normals))
					w.WriteFloat64s(fieldMax, []int{3}, rec.Bounds.Max[:])
				})
			},
			wantField: fieldMin,
		},
		{
			name: "wrong vertex shape",
			path: func(t *testing.T) string {
				return build(t, func(w *npz.Writer) {
					w.WriteFloat64s(fieldVertices, []int{3, 4}, make([]float64, 12))
					w.WriteUint32s(fieldFaces, []int{0, 3}, nil)
					w.WriteFloat64s(fieldNormals, []int{0, 3}, nil)
				})
			},
			wantField: fieldVertices,
		},
		{
			name: "vertex shape overflows",
			path: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "huge.npz")
				f, err := os.Create(p)
				if err != nil {
					t.Fatal(err)
				}
				defer f.Close()
				zw := zip.NewWriter(f)
				for _, field := range []string{fieldVertices, fieldFaces, fieldNormals} {
					fw, err := zw.Create(field + ".npy")
					if err != nil {
						t.Fatal(err)
					}
					h := npz.Header{Descr: "<f8", Shape: []int{3074457345618258603, 3}}
					if field == fieldFaces {
						h.Descr = "<u4"
					}
					if err := npz.WriteHeader(fw, h); err != nil {
						t.Fatal(err)
					}
					fw.Write(make([]byte, 64))
				}
				if err := zw.Close(); err != nil {
					t.Fatal(err)
				}
				return p
			},
			wantField: fieldVertices,
		},
		{
			name: "normals mismatch",
			path: func(t *testing.T) string {
				return build(t, func(w *npz.Writer) {
					w.WriteFloat64s(fieldVertices, []int{len(rec.Vertices), 3}, flattenVec3s(rec.Vertices))
					w.WriteUint32s(fieldFaces, []int{len(rec.Faces), 3}, flattenFaces(rec.Faces))
					w.WriteFloat64s(fieldNormals, []int{1, 3}, []float64{0, 1, 0})
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCompressed(tt.path(t))
			var ce *CorruptError
			if !errors.As(err, &ce) {
				t.Fatalf("LoadCompressed() error = %v, want *CorruptError", err)
			}
			if tt.wantField != "" && ce.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ce.Field, tt.wantField)
			}
		})
	}
}

func TestLoad_MissingFileIsCorrupt(t *testing.T) {
	for _, ext := range []string{TaggedExt, CompressedExt} {
		path := filepath.Join(t.TempDir(), "absent"+ext)
		_, err := Load(path)
		if !errors.Is(err, ErrCorrupt) {
			t.Errorf("%s: error = %v, want ErrCorrupt", ext, err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s: error = %v, want os.ErrNotExist", ext, err)
		}
		if _, err := Inspect(path); !errors.Is(err, ErrCorrupt) || !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s: Inspect() error = %v, want ErrCorrupt wrapping os.ErrNotExist", ext, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"tagged", FormatTagged, false},
		{"MPK", FormatTagged, false},
		{"compressed", FormatCompressed, false},
		{"npz", FormatCompressed, false},
		{"pickle", FormatUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
}

func TestPathFor(t *testing.T) {
	tests := []struct {
		source, dir string
		format      Format
		want        string
	}{
		{"/models/bunny.obj", "", FormatCompressed, "/models/bunny.npz"},
		{"/models/bunny.obj", "/tmp/c", FormatTagged, "/tmp/c/bunny.mpk"},
		{"part.v2.stl", "out", FormatTagged, filepath.Join("out", "part.v2.mpk")},
	}

	for _, tt := range tests {
		if got := PathFor(tt.source, tt.dir, tt.format); got != tt.want {
			t.Errorf("PathFor(%q, %q) = %q, want %q", tt.source, tt.dir, got, tt.want)
		}
	}
}

func TestSave_UnknownFormat(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "x.pkl"), sampleRecord())
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Save() error = %v, want ErrUnknownFormat", err)
	}
}
