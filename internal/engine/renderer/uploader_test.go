package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestFlattenVec3s(t *testing.T) {
	got := flattenVec3s([]mgl64.Vec3{{1, 2, 3}, {-0.5, 0, 4.25}})
	want := []float32{1, 2, 3, -0.5, 0, 4.25}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if len(flattenVec3s(nil)) != 0 {
		t.Error("nil input should flatten to nothing")
	}
}

func TestFlattenFaces(t *testing.T) {
	got := flattenFaces([][3]uint32{{0, 1, 2}, {2, 3, 0}})
	want := []uint32{0, 1, 2, 2, 3, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
