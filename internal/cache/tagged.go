package cache

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tinylib/msgp/msgp"

	"github.com/Faultbox/meshview/internal/mesh"
)

// Tuple field counts. The legacy layout stops after normals.
const (
	taggedFields       = 5
	taggedLegacyFields = 3
)

// Capacity hint cap so a hostile length prefix cannot force a huge allocation.
const maxPrealloc = 1 << 16

// SaveTagged writes rec as a MessagePack array
// [vertices, faces, normals, max corner, min corner].
func SaveTagged(path string, rec *mesh.Record) error {
	return writeFileAtomic(path, func(f *os.File) error {
		if err := EncodeTagged(f, rec); err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
		return nil
	})
}

// EncodeTagged writes the tagged encoding of rec to w.
func EncodeTagged(w io.Writer, rec *mesh.Record) error {
	return encodeTagged(w, rec, taggedFields)
}

func encodeTagged(w io.Writer, rec *mesh.Record, fields int) error {
	mw := msgp.NewWriter(w)
	if err := mw.WriteArrayHeader(uint32(fields)); err != nil {
		return err
	}
	if err := writeVec3s(mw, rec.Vertices); err != nil {
		return err
	}
	if err := mw.WriteArrayHeader(uint32(len(rec.Faces))); err != nil {
		return err
	}
	for _, f := range rec.Faces {
		if err := mw.WriteArrayHeader(3); err != nil {
			return err
		}
		for _, idx := range f {
			if err := mw.WriteUint32(idx); err != nil {
				return err
			}
		}
	}
	if err := writeVec3s(mw, rec.Normals); err != nil {
		return err
	}
	if fields == taggedFields {
		if err := writeVec3(mw, rec.Bounds.Max); err != nil {
			return err
		}
		if err := writeVec3(mw, rec.Bounds.Min); err != nil {
			return err
		}
	}
	return mw.Flush()
}

func writeVec3s(mw *msgp.Writer, vs []mgl64.Vec3) error {
	if err := mw.WriteArrayHeader(uint32(len(vs))); err != nil {
		return err
	}
	for _, v := range vs {
		if err := writeVec3(mw, v); err != nil {
			return err
		}
	}
	return nil
}

func writeVec3(mw *msgp.Writer, v mgl64.Vec3) error {
	if err := mw.WriteArrayHeader(3); err != nil {
		return err
	}
	for _, c := range v {
		if err := mw.WriteFloat64(c); err != nil {
			return err
		}
	}
	return nil
}

// LoadTagged reads a tagged cache. Both the five-field and the legacy
// three-field layouts are accepted; bounds are computed for the latter.
func LoadTagged(path string) (*mesh.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, corrupt(path, "", err)
	}
	defer f.Close()

	rec, err := DecodeTagged(bufio.NewReader(f), path)
	if err != nil {
		return nil, err
	}
	rec.Name = recordName(path)
	return rec, nil
}

// DecodeTagged reads one tagged record from r. The path is only used in errors.
func DecodeTagged(r io.Reader, path string) (*mesh.Record, error) {
	rec, haveBounds, err := decodeTagged(msgp.NewReader(r), path)
	if err != nil {
		return nil, err
	}
	return finish(path, rec, haveBounds)
}

func decodeTagged(mr *msgp.Reader, path string) (*mesh.Record, bool, error) {
	n, err := mr.ReadArrayHeader()
	if err != nil {
		return nil, false, corrupt(path, "", err)
	}
	if n != taggedFields && n != taggedLegacyFields {
		return nil, false, corrupt(path, "", fmt.Errorf("tuple has %d fields, want %d or %d",
			n, taggedLegacyFields, taggedFields))
	}

	rec := &mesh.Record{}
	if rec.Vertices, err = readVec3s(mr); err != nil {
		return nil, false, corrupt(path, "vertices", err)
	}
	if rec.Faces, err = readFaces(mr); err != nil {
		return nil, false, corrupt(path, "faces", err)
	}
	if rec.Normals, err = readVec3s(mr); err != nil {
		return nil, false, corrupt(path, "normals", err)
	}
	if n == taggedLegacyFields {
		return rec, false, nil
	}
	if rec.Bounds.Max, err = readVec3(mr); err != nil {
		return nil, false, corrupt(path, "max_tuple", err)
	}
	if rec.Bounds.Min, err = readVec3(mr); err != nil {
		return nil, false, corrupt(path, "min_tuple", err)
	}
	return rec, true, nil
}

func readVec3s(mr *msgp.Reader) ([]mgl64.Vec3, error) {
	n, err := mr.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	out := make([]mgl64.Vec3, 0, min(int(n), maxPrealloc))
	for i := uint32(0); i < n; i++ {
		v, err := readVec3(mr)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func readVec3(mr *msgp.Reader) (mgl64.Vec3, error) {
	var v mgl64.Vec3
	n, err := mr.ReadArrayHeader()
	if err != nil {
		return v, err
	}
	if n != 3 {
		return v, fmt.Errorf("vector has %d components, want 3", n)
	}
	for i := range v {
		if v[i], err = mr.ReadFloat64(); err != nil {
			return v, err
		}
	}
	return v, nil
}

func readFaces(mr *msgp.Reader) ([][3]uint32, error) {
	n, err := mr.ReadArrayHeader()
	if err != nil {
		return nil, err
	}
	out := make([][3]uint32, 0, min(int(n), maxPrealloc))
	for i := uint32(0); i < n; i++ {
		k, err := mr.ReadArrayHeader()
		if err != nil {
			return nil, fmt.Errorf("face %d: %w", i, err)
		}
		if k != 3 {
			return nil, fmt.Errorf("face %d has %d corners, want 3", i, k)
		}
		var f [3]uint32
		for j := range f {
			if f[j], err = mr.ReadUint32(); err != nil {
				return nil, fmt.Errorf("face %d: %w", i, err)
			}
		}
		out = append(out, f)
	}
	return out, nil
}
