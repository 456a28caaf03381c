package gpubuf

import (
	"fmt"
	"strings"
)

// DrawMode selects the primitive used for every bundle.
type DrawMode int

const (
	ModeFace DrawMode = iota
	ModeWireframe
	ModePoint
)

// String returns the config name of the mode.
func (m DrawMode) String() string {
	switch m {
	case ModeFace:
		return "face"
	case ModeWireframe:
		return "wireframe"
	case ModePoint:
		return "point"
	default:
		return fmt.Sprintf("DrawMode(%d)", int(m))
	}
}

// Next cycles face -> wireframe -> point -> face.
func (m DrawMode) Next() DrawMode {
	return (m + 1) % 3
}

// ParseDrawMode parses a mode name.
func ParseDrawMode(s string) (DrawMode, error) {
	switch strings.ToLower(s) {
	case "face", "faces", "fill":
		return ModeFace, nil
	case "wireframe", "wire", "line":
		return ModeWireframe, nil
	case "point", "points":
		return ModePoint, nil
	default:
		return ModeFace, fmt.Errorf("unknown draw mode %q", s)
	}
}
