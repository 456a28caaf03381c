package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/meshview/internal/cache"
	"github.com/Faultbox/meshview/internal/mesh"
)

const triOBJ = "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"

func writeOBJ(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_WritesAndReusesCache(t *testing.T) {
	for _, format := range []cache.Format{cache.FormatTagged, cache.FormatCompressed} {
		t.Run(format.String(), func(t *testing.T) {
			dir := t.TempDir()
			cacheDir := filepath.Join(dir, "cache")
			obj := writeOBJ(t, dir, "tri.obj", triOBJ)

			l := New(Options{CacheDir: cacheDir, Format: format, UseCache: true})
			first, err := l.Load(obj)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			cachePath := filepath.Join(cacheDir, "tri"+format.Ext())
			if _, err := os.Stat(cachePath); err != nil {
				t.Fatalf("cache not written: %v", err)
			}

			// Make the cache distinguishable from a rebuild.
			marked := first.Clone()
			marked.Bounds.Max[0] = 42
			if err := cache.Save(cachePath, marked); err != nil {
				t.Fatal(err)
			}

			second, err := l.Load(obj)
			if err != nil {
				t.Fatalf("second Load() error = %v", err)
			}
			if second.Bounds.Max[0] != 42 {
				t.Error("fresh cache was not used")
			}
			if second.Name != "tri" {
				t.Errorf("Name = %q", second.Name)
			}
		})
	}
}

func TestLoad_StaleCacheIgnored(t *testing.T) {
	dir := t.TempDir()
	obj := writeOBJ(t, dir, "tri.obj", triOBJ)
	l := New(Options{Format: cache.FormatCompressed, UseCache: true})
	if _, err := l.Load(obj); err != nil {
		t.Fatal(err)
	}

	cachePath := filepath.Join(dir, "tri.npz")
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(cachePath, old, old); err != nil {
		t.Fatal(err)
	}
	// Source gains a vertex after the cache was written.
	writeOBJ(t, dir, "tri.obj", triOBJ+"v 5 5 5\n")

	rec, err := l.Load(obj)
	if err != nil {
		t.Fatal(err)
	}
	if rec.VertexCount() != 4 {
		t.Errorf("VertexCount() = %d, stale cache used", rec.VertexCount())
	}
}

func TestLoad_CorruptCacheRebuilt(t *testing.T) {
	dir := t.TempDir()
	obj := writeOBJ(t, dir, "tri.obj", triOBJ)
	cachePath := filepath.Join(dir, "tri.mpk")
	if err := os.WriteFile(cachePath, []byte{0x93, 0xc1}, 0644); err != nil {
		t.Fatal(err)
	}

	l := New(Options{Format: cache.FormatTagged, UseCache: true})
	rec, err := l.Load(obj)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rec.FaceCount() != 1 {
		t.Errorf("FaceCount() = %d", rec.FaceCount())
	}
	if _, err := cache.Load(cachePath); err != nil {
		t.Errorf("cache not rewritten: %v", err)
	}
}

func TestLoad_DirectCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.npz")
	os.WriteFile(path, []byte("junk"), 0644)

	l := New(Options{})
	if _, err := l.Load(path); !errors.Is(err, cache.ErrCorrupt) {
		t.Errorf("Load(corrupt cache) error = %v, want ErrCorrupt", err)
	}
}

func TestLoad_NoCache(t *testing.T) {
	dir := t.TempDir()
	obj := writeOBJ(t, dir, "tri.obj", triOBJ)

	l := New(Options{UseCache: false})
	if _, err := l.Load(obj); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("cache written with caching disabled: %v", entries)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	empty := writeOBJ(t, dir, "empty.obj", "# nothing\n")
	l := New(Options{UseCache: true})

	if _, err := l.Load(empty); !errors.Is(err, mesh.ErrEmptySource) {
		t.Errorf("empty source: error = %v", err)
	}
	if _, err := l.Load(filepath.Join(dir, "absent.obj")); err == nil {
		t.Error("missing source should fail")
	}
	if _, err := l.Load("sphere:1"); err != nil {
		t.Errorf("procedural source: %v", err)
	}
}
