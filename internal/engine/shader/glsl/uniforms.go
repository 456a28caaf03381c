package glsl

import (
	"regexp"
	"strconv"
	"strings"
)

// Uniform is a declaration found in shader source. Default is nil when the
// declaration has no initializer, and otherwise one of float32, []float32
// (vecN), Matrix (matN) or the raw initializer string.
type Uniform struct {
	Type    string
	Default any
}

// Matrix is a square matrix initializer, values in source order.
type Matrix struct {
	Size   int
	Values []float32
}

var (
	uniformRe = regexp.MustCompile(`uniform\s+(\w+)\s+(\w+)(?:\s*=\s*(.*?))?;`)
	vectorRe  = regexp.MustCompile(`^vec(\d)\((.*)\)$`)
	matrixRe  = regexp.MustCompile(`^mat(\d)\((.*)\)$`)
	scalarRe  = regexp.MustCompile(`^[-+]?[0-9]*\.?[0-9]+`)
)

// ParseUniforms extracts uniform declarations keyed by name.
func ParseUniforms(src string) map[string]Uniform {
	out := make(map[string]Uniform)
	for _, m := range uniformRe.FindAllStringSubmatch(src, -1) {
		u := Uniform{Type: m[1]}
		if m[3] != "" {
			u.Default = ParseDefault(m[3])
		}
		out[m[2]] = u
	}
	return out
}

// ParseDefault converts a GLSL initializer. Vectors and matrices whose
// component count does not match their size fall through to the scalar
// and raw cases.
func ParseDefault(s string) any {
	s = strings.ReplaceAll(s, " ", "")

	if m := vectorRe.FindStringSubmatch(s); m != nil {
		size, _ := strconv.Atoi(m[1])
		if vals, ok := parseFloats(m[2]); ok && len(vals) == size {
			return vals
		}
	}
	if m := matrixRe.FindStringSubmatch(s); m != nil {
		size, _ := strconv.Atoi(m[1])
		if vals, ok := parseFloats(m[2]); ok && len(vals) == size*size {
			return Matrix{Size: size, Values: vals}
		}
	}
	if m := scalarRe.FindString(s); m != "" {
		v, err := strconv.ParseFloat(m, 32)
		if err == nil {
			return float32(v)
		}
	}
	return s
}

func parseFloats(list string) ([]float32, bool) {
	parts := strings.Split(list, ",")
	vals := make([]float32, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 32)
		if err != nil {
			return nil, false
		}
		vals = append(vals, float32(v))
	}
	return vals, true
}
