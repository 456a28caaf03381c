// Package npz reads and writes NumPy .npz archives: zip files holding one
// .npy array per named entry. Arrays are decoded with npyio; the archive
// layer bounds every array by its entry size and sets the deflate level.
package npz

import (
	"archive/zip"
	"bufio"
	"compress/flate"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sbinet/npyio/npy"
)

const npyExt = ".npy"

// ErrNotFound is returned when an archive has no entry with the given name.
var ErrNotFound = errors.New("array not found in archive")

// Archive is an opened .npz file.
type Archive struct {
	closer  io.Closer
	entries map[string]*zip.File
}

// Open opens an .npz archive for reading.
func Open(path string) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	a := newArchive(&rc.Reader)
	a.closer = rc
	return a, nil
}

// NewReader reads an archive from r, which holds size bytes.
func NewReader(r io.ReaderAt, size int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	return newArchive(zr), nil
}

func newArchive(zr *zip.Reader) *Archive {
	a := &Archive{entries: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		a.entries[strings.TrimSuffix(f.Name, npyExt)] = f
	}
	return a
}

// Close closes the archive.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// List returns all array names in the archive, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.entries))
	for name := range a.entries {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Contains checks if an array exists in the archive.
func (a *Archive) Contains(name string) bool {
	_, ok := a.entries[name]
	return ok
}

// Header returns the dtype and shape of the named array without reading its data.
func (a *Archive) Header(name string) (Header, error) {
	rc, r, err := a.open(name)
	if err != nil {
		return Header{}, err
	}
	defer rc.Close()
	return headerFrom(r.Header), nil
}

// ReadFloat64s reads a floating point array as float64 in row-major order.
func (a *Archive) ReadFloat64s(name string) ([]float64, []int, error) {
	rc, r, h, dt, err := a.decoder(name)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	var out []float64
	switch {
	case dt.kind == 'f' && dt.size == 4:
		var f32 []float32
		f32, err = readSlice[float32](r)
		out = widen(f32)
	case dt.kind == 'f':
		out, err = readSlice[float64](r)
	default:
		return nil, nil, fmt.Errorf("%s: %w: want float, have %q", name, ErrUnsupportedDType, h.Descr)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w: %v", name, ErrShape, err)
	}
	if h.FortranOrder {
		out = fortranToC(out, h.Shape)
	}
	return out, h.Shape, nil
}

// ReadUint32s reads an integer array as uint32 in row-major order. Values that
// are negative or do not fit in 32 bits are rejected.
func (a *Archive) ReadUint32s(name string) ([]uint32, []int, error) {
	rc, r, h, dt, err := a.decoder(name)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	var out []uint32
	switch dt.kind {
	case 'i':
		out, err = readInts(r, dt.size, true)
	case 'u':
		out, err = readInts(r, dt.size, false)
	default:
		return nil, nil, fmt.Errorf("%s: %w: want integer, have %q", name, ErrUnsupportedDType, h.Descr)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	if h.FortranOrder {
		out = fortranToC(out, h.Shape)
	}
	return out, h.Shape, nil
}

func readInts(r *npy.Reader, size int, signed bool) ([]uint32, error) {
	var (
		out []uint32
		err error
	)
	switch {
	case signed && size == 1:
		var v []int8
		if v, err = readSlice[int8](r); err == nil {
			return narrow(v)
		}
	case signed && size == 2:
		var v []int16
		if v, err = readSlice[int16](r); err == nil {
			return narrow(v)
		}
	case signed && size == 4:
		var v []int32
		if v, err = readSlice[int32](r); err == nil {
			return narrow(v)
		}
	case signed:
		var v []int64
		if v, err = readSlice[int64](r); err == nil {
			return narrow(v)
		}
	case size == 1:
		var v []uint8
		if v, err = readSlice[uint8](r); err == nil {
			return narrow(v)
		}
	case size == 2:
		var v []uint16
		if v, err = readSlice[uint16](r); err == nil {
			return narrow(v)
		}
	case size == 4:
		out, err = readSlice[uint32](r)
	default:
		var v []uint64
		if v, err = readSlice[uint64](r); err == nil {
			return narrow(v)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShape, err)
	}
	return out, nil
}

// open starts decoding the named entry. The returned closer must be closed.
func (a *Archive) open(name string) (io.ReadCloser, *npy.Reader, error) {
	f, ok := a.entries[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", name, err)
	}
	r, err := npy.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, nil, fmt.Errorf("%s: %w: %v", name, ErrMalformedHeader, err)
	}
	return rc, r, nil
}

// decoder opens the named entry and checks that the payload its header
// declares fits in the entry, so no allocation exceeds the file contents.
func (a *Archive) decoder(name string) (io.ReadCloser, *npy.Reader, Header, dtype, error) {
	rc, r, err := a.open(name)
	if err != nil {
		return nil, nil, Header{}, dtype{}, err
	}
	h := headerFrom(r.Header)
	dt, err := parseDescr(h.Descr)
	if err == nil && h.FortranOrder && len(h.Shape) > 2 {
		err = fmt.Errorf("%w: fortran order with %d dimensions", ErrShape, len(h.Shape))
	}
	var n int
	if err == nil {
		n, err = h.Len()
	}
	if err == nil {
		avail := a.entries[name].UncompressedSize64
		if uint64(n) > avail/uint64(dt.size) {
			err = fmt.Errorf("%w: %v of %d-byte elements exceeds %d-byte entry", ErrShape, h.Shape, dt.size, avail)
		}
	}
	if err != nil {
		rc.Close()
		return nil, nil, Header{}, dtype{}, fmt.Errorf("%s: %w", name, err)
	}
	return rc, r, h, dt, nil
}

// Writer creates a compressed .npz archive.
type Writer struct {
	zw    *zip.Writer
	names map[string]bool
}

// NewWriter returns a writer that deflates every array at the given
// compress/flate level.
func NewWriter(w io.Writer, level int) *Writer {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	return &Writer{zw: zw, names: make(map[string]bool)}
}

// WriteFloat64s stores data as a little-endian float64 array.
func (w *Writer) WriteFloat64s(name string, shape []int, data []float64) error {
	return w.write(name, "<f8", shape, len(data), data)
}

// WriteUint32s stores data as a little-endian uint32 array.
func (w *Writer) WriteUint32s(name string, shape []int, data []uint32) error {
	return w.write(name, "<u4", shape, len(data), data)
}

func (w *Writer) write(name, descr string, shape []int, n int, data any) error {
	if w.names[name] {
		return fmt.Errorf("duplicate array %q", name)
	}
	h := Header{Descr: descr, Shape: shape}
	if want, err := h.Len(); err != nil || want != n {
		return fmt.Errorf("%s: %w: shape %v does not hold %d elements", name, ErrShape, shape, n)
	}

	fw, err := w.zw.CreateHeader(&zip.FileHeader{Name: name + npyExt, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	bw := bufio.NewWriterSize(fw, 64*1024)
	if err := WriteHeader(bw, h); err != nil {
		return fmt.Errorf("writing %s header: %w", name, err)
	}
	if err := binary.Write(bw, binary.LittleEndian, data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	w.names[name] = true
	return nil
}

// Close finishes the archive. It does not close the underlying writer.
func (w *Writer) Close() error {
	return w.zw.Close()
}
