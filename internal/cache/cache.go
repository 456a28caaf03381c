// Package cache stores combined mesh records on disk and loads them back
// bit-exactly. Two formats are supported: a tagged MessagePack tuple and a
// compressed .npz archive of named arrays.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/meshview/internal/mesh"
)

// File extensions of the two cache formats.
const (
	TaggedExt     = ".mpk"
	CompressedExt = ".npz"
)

// Format selects a cache encoding.
type Format int

const (
	FormatUnknown Format = iota
	FormatTagged
	FormatCompressed
)

// String returns the config name of the format.
func (f Format) String() string {
	switch f {
	case FormatTagged:
		return "tagged"
	case FormatCompressed:
		return "compressed"
	default:
		return "unknown"
	}
}

// Ext returns the file extension of the format.
func (f Format) Ext() string {
	switch f {
	case FormatTagged:
		return TaggedExt
	case FormatCompressed:
		return CompressedExt
	default:
		return ""
	}
}

// ParseFormat parses a format name as used in config files and flags.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "tagged", "mpk":
		return FormatTagged, nil
	case "compressed", "npz":
		return FormatCompressed, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFor infers the format from a file extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case TaggedExt:
		return FormatTagged
	case CompressedExt:
		return FormatCompressed
	default:
		return FormatUnknown
	}
}

// IsCache reports whether path has a cache file extension.
func IsCache(path string) bool {
	return FormatFor(path) != FormatUnknown
}

// Save writes rec to path in the format implied by its extension.
func Save(path string, rec *mesh.Record) error {
	return SaveAs(path, FormatFor(path), rec)
}

// SaveAs writes rec to path in the given format.
func SaveAs(path string, f Format, rec *mesh.Record) error {
	switch f {
	case FormatTagged:
		return SaveTagged(path, rec)
	case FormatCompressed:
		return SaveCompressed(path, rec)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Load reads a record from path in the format implied by its extension.
func Load(path string) (*mesh.Record, error) {
	switch FormatFor(path) {
	case FormatTagged:
		return LoadTagged(path)
	case FormatCompressed:
		return LoadCompressed(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// PathFor returns the cache file that belongs to source in dir. An empty dir
// places the cache next to the source.
func PathFor(source, dir string, f Format) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if dir == "" {
		dir = filepath.Dir(source)
	}
	return filepath.Join(dir, base+f.Ext())
}

func recordName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// writeFileAtomic writes through a temporary file in the same directory and
// renames it into place, so readers never observe a partial cache.
func writeFileAtomic(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".meshcache-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming cache file: %w", err)
	}
	return nil
}

// finish fills bounds when absent and checks array consistency.
func finish(path string, rec *mesh.Record, haveBounds bool) (*mesh.Record, error) {
	if !haveBounds {
		rec.Bounds = mesh.BoundsOf(rec.Vertices)
	}
	if err := rec.Validate(); err != nil {
		return nil, corrupt(path, "", err)
	}
	return rec, nil
}
