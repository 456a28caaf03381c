// Package viewer implements the interactive mesh viewer loop.
package viewer

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/config"
	"github.com/Faultbox/meshview/internal/engine/camera"
	"github.com/Faultbox/meshview/internal/engine/debug"
	"github.com/Faultbox/meshview/internal/engine/gpubuf"
	"github.com/Faultbox/meshview/internal/engine/input"
	"github.com/Faultbox/meshview/internal/engine/renderer"
	"github.com/Faultbox/meshview/internal/engine/window"
	"github.com/Faultbox/meshview/internal/loader"
	"github.com/Faultbox/meshview/internal/logger"
)

// Title is the window title prefix.
const Title = "meshview"

// Viewer owns the window, the GPU collection and the camera. All methods
// except Open must be called from the main thread.
type Viewer struct {
	cfg      *config.Config
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	controls *Controls
	shots    *debug.ScreenshotCapture

	loader   *loader.Loader
	meshes   *gpubuf.Collection
	inbox    gpubuf.Inbox
	loading  sync.WaitGroup
	opened   []string
	openedMu sync.Mutex
	fitted   bool
	log      *zap.Logger
}

// New creates the window and GL resources.
func New(cfg *config.Config) (*Viewer, error) {
	v := &Viewer{
		cfg: cfg,
		log: logger.Named("viewer"),
		loader: loader.New(loader.Options{
			CacheDir: cfg.Cache.Dir,
			Format:   cfg.CacheFormat(),
			UseCache: cfg.Cache.Write,
		}),
		meshes: gpubuf.New(nil),
		shots:  debug.NewScreenshotCapture("screenshots", Title),
	}
	v.log.Info("initializing viewer",
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
		zap.String("shader", cfg.Viewer.Shader),
	)

	var err error
	v.window, err = window.New(window.Config{
		Title:      Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Samples:    cfg.Window.Samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer comes after the window, since the GL context must exist.
	fbW, fbH := v.window.DrawableSize()
	v.renderer, err = renderer.New(renderer.Config{
		Width:       fbW,
		Height:      fbH,
		Shader:      cfg.Viewer.Shader,
		ShaderDir:   cfg.Viewer.ShaderDir,
		Background:  cfg.Viewer.Background,
		LightPos:    cfg.Viewer.LightPos,
		LightColor:  cfg.Viewer.LightColor,
		ObjectColor: cfg.Viewer.ObjectColor,
	})
	if err != nil {
		v.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	if err := v.meshes.Attach(renderer.GLUploader{}); err != nil {
		v.Close()
		return nil, err
	}

	cam := camera.NewOrbitCamera()
	cam.FOV = cfg.Viewer.FOV
	cam.Near = cfg.Viewer.NearClip
	cam.Far = cfg.Viewer.FarClip
	v.controls = NewControls(cam, cfg.DrawMode(), cfg.Viewer.ShowBBox)
	v.input = input.New()

	v.log.Info("viewer initialized successfully")
	return v, nil
}

// Open loads paths in the background. Results are uploaded by the render
// loop. Safe to call from any goroutine.
func (v *Viewer) Open(paths ...string) {
	for _, p := range paths {
		v.openedMu.Lock()
		v.opened = append(v.opened, p)
		v.openedMu.Unlock()

		gen := v.inbox.Generation()
		v.loading.Add(1)
		go func(path string) {
			defer v.loading.Done()
			rec, err := v.loader.Load(path)
			d := gpubuf.Delivery{Label: path, Err: err, Generation: gen}
			if err == nil {
				d.Meshes = rec
			}
			if !v.inbox.Post(d) {
				v.log.Debug("discarding stale load", zap.String("path", path))
			}
		}(p)
	}
}

// Run starts the main loop and returns when the window closes.
func (v *Viewer) Run() error {
	v.running = true

	frameCount := 0
	fpsTimer := time.Now()

	v.log.Info("starting render loop")
	for v.running {
		if v.input.Update() {
			v.running = false
			break
		}
		for _, event := range v.input.Events() {
			if event.Type == input.EventWindowResize {
				v.renderer.Resize(v.window.DrawableSize())
				continue
			}
			action, dropped := v.controls.Handle(event)
			if dropped != "" {
				v.Open(dropped)
			}
			v.do(action)
		}

		v.receive()

		v.renderer.Draw(v.meshes, v.controls.Camera, v.controls.Mode, v.controls.ShowBBox)
		v.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			v.log.Debug("fps", zap.Int("count", frameCount))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
	return nil
}

// receive uploads finished loads and refits the camera to the first.
func (v *Viewer) receive() {
	added, errs := v.inbox.Drain(v.meshes)
	for _, err := range errs {
		v.log.Error("failed to load mesh", zap.Error(err))
	}
	if added == 0 {
		return
	}
	if !v.fitted {
		v.controls.Camera.FitToBounds(v.meshes.Bounds())
		v.fitted = true
	}
	v.updateTitle()
	b := v.meshes.Bounds()
	v.log.Info("meshes uploaded",
		zap.Int("added", added),
		zap.Int("total", v.meshes.Len()),
		zap.Float64s("min", b.Min[:]),
		zap.Float64s("max", b.Max[:]))
}

func (v *Viewer) do(a Action) {
	switch a {
	case ActionQuit:
		v.running = false
	case ActionOpenDialog:
		chooseFile(func(path string) { v.Open(path) })
	case ActionResetCamera:
		v.controls.Camera.FitToBounds(v.meshes.Bounds())
	case ActionNextShader:
		next := nextShader(v.renderer.Shader())
		if err := v.renderer.SetShader(next); err != nil {
			v.log.Error("failed to switch shader", zap.String("shader", next), zap.Error(err))
		}
		v.updateTitle()
	case ActionReload:
		v.reload()
	case ActionScreenshot:
		pixels, w, h := v.renderer.ReadPixels()
		name, err := v.shots.CaptureFromPixels(pixels, w, h)
		if err != nil {
			v.log.Error("screenshot failed", zap.Error(err))
			return
		}
		v.log.Info("screenshot saved", zap.String("path", name))
	}
}

// reload drops every mesh and loads the opened paths again. Loads still in
// flight from before are discarded when they finish.
func (v *Viewer) reload() {
	v.openedMu.Lock()
	paths := v.opened
	v.opened = nil
	v.openedMu.Unlock()

	v.inbox.Reset()
	v.meshes.Clear()
	v.fitted = false
	v.Open(paths...)
}

func (v *Viewer) updateTitle() {
	v.window.SetTitle(windowTitle(v.meshes, v.renderer.Shader()))
}

// Close waits for background loads and frees resources.
func (v *Viewer) Close() {
	v.log.Info("closing viewer")
	v.loading.Wait()

	if v.meshes != nil && v.renderer != nil {
		v.meshes.Clear()
	}
	if v.renderer != nil {
		v.renderer.Close()
	}
	if v.window != nil {
		v.window.Close()
	}
}

func nextShader(current string) string {
	for i, s := range config.Shaders {
		if s == current {
			return config.Shaders[(i+1)%len(config.Shaders)]
		}
	}
	return config.Shaders[0]
}

func windowTitle(coll *gpubuf.Collection, shader string) string {
	var names []string
	verts, faces := 0, 0
	coll.Each(func(i int, it gpubuf.Item) {
		names = append(names, filepath.Base(coll.Record(i).Name))
		verts += it.VertexCount
		faces += it.FaceCount
	})
	if len(names) == 0 {
		return Title
	}
	return fmt.Sprintf("%s - %s [%s] %d vertices, %d faces",
		Title, strings.Join(names, ", "), shader, verts, faces)
}
