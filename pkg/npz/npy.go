package npz

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/sbinet/npyio/npy"
)

// Errors returned while decoding .npy payloads.
var (
	ErrMalformedHeader  = errors.New("malformed npy header")
	ErrUnsupportedDType = errors.New("unsupported npy dtype")
	ErrShape            = errors.New("npy shape does not match data")
)

const npyMagic = "\x93NUMPY"

// Header describes one array: its dtype string, memory order and shape.
type Header struct {
	Descr        string
	FortranOrder bool
	Shape        []int
}

func headerFrom(h npy.Header) Header {
	return Header{
		Descr:        h.Descr.Type,
		FortranOrder: h.Descr.Fortran,
		Shape:        append([]int{}, h.Descr.Shape...),
	}
}

// Len returns the number of elements described by the shape. Negative
// dimensions and products that overflow int are ErrShape.
func (h Header) Len() (int, error) {
	n := 1
	for _, d := range h.Shape {
		if d < 0 {
			return 0, fmt.Errorf("%w: negative dimension in %v", ErrShape, h.Shape)
		}
		if d != 0 && n > math.MaxInt/d {
			return 0, fmt.Errorf("%w: %v overflows", ErrShape, h.Shape)
		}
		n *= d
	}
	return n, nil
}

// WriteHeader encodes h as a version 1.0 header padded to 64 bytes.
func WriteHeader(w io.Writer, h Header) error {
	var dict strings.Builder
	fmt.Fprintf(&dict, "{'descr': '%s', 'fortran_order': %s, 'shape': (", h.Descr, pyBool(h.FortranOrder))
	for i, d := range h.Shape {
		if i > 0 {
			dict.WriteString(", ")
		}
		dict.WriteString(strconv.Itoa(d))
	}
	if len(h.Shape) == 1 {
		dict.WriteString(",")
	}
	dict.WriteString("), }")

	// magic(6) + version(2) + length(2) + dict + padding + '\n'
	total := 10 + dict.Len() + 1
	pad := (64 - total%64) % 64
	body := dict.String() + strings.Repeat(" ", pad) + "\n"
	if len(body) > 0xffff {
		return fmt.Errorf("%w: header too long", ErrMalformedHeader)
	}

	var buf bytes.Buffer
	buf.WriteString(npyMagic)
	buf.Write([]byte{1, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(len(body)))
	buf.WriteString(body)
	_, err := w.Write(buf.Bytes())
	return err
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// dtype is the kind and width of a descr string such as "<f8".
type dtype struct {
	kind byte
	size int
}

func parseDescr(s string) (dtype, error) {
	if len(s) < 3 || !strings.ContainsRune("<>|=", rune(s[0])) {
		return dtype{}, fmt.Errorf("%w: %q", ErrUnsupportedDType, s)
	}
	size, err := strconv.Atoi(s[2:])
	if err != nil {
		return dtype{}, fmt.Errorf("%w: %q", ErrUnsupportedDType, s)
	}
	dt := dtype{kind: s[1], size: size}

	switch {
	case dt.kind == 'f' && (size == 4 || size == 8):
	case (dt.kind == 'i' || dt.kind == 'u') && (size == 1 || size == 2 || size == 4 || size == 8):
	default:
		return dtype{}, fmt.Errorf("%w: %q", ErrUnsupportedDType, s)
	}
	return dt, nil
}

// readSlice decodes the whole payload of r into a flat slice of T.
func readSlice[T any](r *npy.Reader) ([]T, error) {
	var out []T
	if err := r.Read(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func widen[E float32 | float64](in []E) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// narrow converts integers to uint32, rejecting negative values and values
// above math.MaxUint32.
func narrow[E integer](in []E) ([]uint32, error) {
	out := make([]uint32, len(in))
	for i, v := range in {
		if v < 0 || uint64(v) > math.MaxUint32 {
			return nil, fmt.Errorf("value %d at %d out of uint32 range", v, i)
		}
		out[i] = uint32(v)
	}
	return out, nil
}

// fortranToC reorders a column-major 2-D array into row-major order.
func fortranToC[T any](data []T, shape []int) []T {
	if len(shape) != 2 {
		return data
	}
	rows, cols := shape[0], shape[1]
	out := make([]T, len(data))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[r*cols+c] = data[c*rows+r]
		}
	}
	return out
}
