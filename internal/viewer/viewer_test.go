package viewer

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/meshview/internal/engine/camera"
	"github.com/Faultbox/meshview/internal/engine/gpubuf"
	"github.com/Faultbox/meshview/internal/engine/input"
	"github.com/Faultbox/meshview/internal/mesh"
)

type nopUploader struct{ next uint32 }

func (u *nopUploader) Upload(*mesh.Record) (gpubuf.Handles, error) {
	u.next++
	return gpubuf.Handles{VertexArray: u.next}, nil
}

func (u *nopUploader) Release(gpubuf.Handles) {}

func TestControlsKeys(t *testing.T) {
	c := NewControls(camera.NewOrbitCamera(), gpubuf.ModeFace, false)
	key := func(k sdl.Scancode) Action {
		a, _ := c.Handle(input.Event{Type: input.EventKeyDown, Key: k})
		return a
	}

	tests := []struct {
		key  sdl.Scancode
		want Action
	}{
		{sdl.SCANCODE_ESCAPE, ActionQuit},
		{sdl.SCANCODE_O, ActionOpenDialog},
		{sdl.SCANCODE_R, ActionResetCamera},
		{sdl.SCANCODE_S, ActionNextShader},
		{sdl.SCANCODE_L, ActionReload},
		{sdl.SCANCODE_F12, ActionScreenshot},
		{sdl.SCANCODE_M, ActionNone},
	}
	for _, tt := range tests {
		if got := key(tt.key); got != tt.want {
			t.Errorf("key %d: action = %v, want %v", tt.key, got, tt.want)
		}
	}
	if c.Mode != gpubuf.ModeWireframe {
		t.Errorf("Mode = %v after M, want wireframe", c.Mode)
	}
	key(sdl.SCANCODE_3)
	if c.Mode != gpubuf.ModePoint {
		t.Errorf("Mode = %v after 3, want point", c.Mode)
	}
	key(sdl.SCANCODE_B)
	if !c.ShowBBox {
		t.Error("B should toggle the bounding box on")
	}
}

func TestControlsMouse(t *testing.T) {
	cam := camera.NewOrbitCamera()
	c := NewControls(cam, gpubuf.ModeFace, false)

	// Motion without a button does nothing.
	c.Handle(input.Event{Type: input.EventMouseMove, DeltaX: 10, DeltaY: 10})
	if cam.Yaw != 0 || cam.PanX != 0 {
		t.Fatal("camera moved without a button held")
	}

	c.Handle(input.Event{Type: input.EventMouseDown, Button: sdl.BUTTON_LEFT})
	c.Handle(input.Event{Type: input.EventMouseMove, DeltaX: 10, DeltaY: 4})
	if cam.Yaw != 5 || cam.Pitch != 2 {
		t.Errorf("Yaw, Pitch = %v, %v; want 5, 2", cam.Yaw, cam.Pitch)
	}
	c.Handle(input.Event{Type: input.EventMouseUp, Button: sdl.BUTTON_LEFT})

	c.Handle(input.Event{Type: input.EventMouseDown, Button: sdl.BUTTON_RIGHT})
	c.Handle(input.Event{Type: input.EventMouseMove, DeltaX: 100})
	if !mgl32.FloatEqual(cam.PanX, 1) {
		t.Errorf("PanX = %v, want 1", cam.PanX)
	}

	c.Handle(input.Event{Type: input.EventWheel, Wheel: 1})
	if !mgl32.FloatEqual(cam.Scale, 1.1) {
		t.Errorf("Scale = %v, want 1.1", cam.Scale)
	}

	a, path := c.Handle(input.Event{Type: input.EventDropFile, Path: "model.stl"})
	if a != ActionNone || path != "model.stl" {
		t.Errorf("drop = %v, %q", a, path)
	}
}

func TestNextShader(t *testing.T) {
	tests := map[string]string{
		"phong":       "blinn_phong",
		"blinn_phong": "lambertian",
		"lambertian":  "phong",
		"custom":      "phong",
	}
	for in, want := range tests {
		if got := nextShader(in); got != want {
			t.Errorf("nextShader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWindowTitle(t *testing.T) {
	coll := gpubuf.New(&nopUploader{})
	if got := windowTitle(coll, "phong"); got != Title {
		t.Errorf("empty title = %q", got)
	}

	rec := &mesh.Record{
		Name:     "/data/tri.obj",
		Vertices: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:    [][3]uint32{{0, 1, 2}},
		Normals:  []mgl64.Vec3{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
	}
	rec.Bounds = mesh.BoundsOf(rec.Vertices)
	if err := coll.Add(rec); err != nil {
		t.Fatal(err)
	}
	got := windowTitle(coll, "lambertian")
	for _, want := range []string{"tri.obj", "[lambertian]", "3 vertices", "1 faces"} {
		if !strings.Contains(got, want) {
			t.Errorf("title %q missing %q", got, want)
		}
	}
}
