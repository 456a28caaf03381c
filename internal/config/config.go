// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshview/internal/cache"
	"github.com/Faultbox/meshview/internal/engine/gpubuf"
	"github.com/Faultbox/meshview/internal/logger"
)

// Config holds all viewer settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	Samples    int  `yaml:"samples"` // MSAA samples, 0 disables
}

// ViewerConfig holds rendering and scene settings.
type ViewerConfig struct {
	Mode        string     `yaml:"mode"`       // face, wireframe or point
	Shader      string     `yaml:"shader"`     // phong, blinn_phong or lambertian
	ShaderDir   string     `yaml:"shader_dir"` // empty uses the built-in shaders
	FOV         float32    `yaml:"fov"`
	NearClip    float32    `yaml:"near_clip"`
	FarClip     float32    `yaml:"far_clip"`
	Background  [3]float32 `yaml:"background"`
	ShowBBox    bool       `yaml:"show_bbox"`
	LightPos    [3]float32 `yaml:"light_pos"`
	LightColor  [3]float32 `yaml:"light_color"`
	ObjectColor [3]float32 `yaml:"object_color"`
}

// CacheConfig controls where combined meshes are cached.
type CacheConfig struct {
	Dir    string `yaml:"dir"`    // empty stores caches next to the source
	Format string `yaml:"format"` // tagged or compressed
	Write  bool   `yaml:"write"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:      1024,
			Height:     768,
			Fullscreen: false,
			VSync:      true,
			Samples:    4,
		},
		Viewer: ViewerConfig{
			Mode:        "face",
			Shader:      "phong",
			FOV:         45,
			NearClip:    0.1,
			FarClip:     1000,
			Background:  [3]float32{0.1, 0.1, 0.12},
			LightPos:    [3]float32{1.2, 1.0, 2.0},
			LightColor:  [3]float32{1, 1, 1},
			ObjectColor: [3]float32{1.0, 0.5, 0.31},
		},
		Cache: CacheConfig{
			Format: "compressed",
			Write:  true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks enumerated values and ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if _, err := gpubuf.ParseDrawMode(c.Viewer.Mode); err != nil {
		errs = append(errs, err)
	}
	if !validShader(c.Viewer.Shader) {
		errs = append(errs, fmt.Errorf("unknown shader %q", c.Viewer.Shader))
	}
	if c.Viewer.FOV <= 0 || c.Viewer.FOV >= 180 {
		errs = append(errs, fmt.Errorf("fov %v out of range (0, 180)", c.Viewer.FOV))
	}
	if c.Viewer.NearClip <= 0 || c.Viewer.FarClip <= c.Viewer.NearClip {
		errs = append(errs, fmt.Errorf("clip planes near=%v far=%v invalid", c.Viewer.NearClip, c.Viewer.FarClip))
	}
	if _, err := cache.ParseFormat(c.Cache.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Shaders lists the built-in lighting models.
var Shaders = []string{"phong", "blinn_phong", "lambertian"}

func validShader(name string) bool {
	for _, s := range Shaders {
		if s == name {
			return true
		}
	}
	return false
}

// DrawMode returns the parsed viewer mode, face when invalid.
func (c *Config) DrawMode() gpubuf.DrawMode {
	m, _ := gpubuf.ParseDrawMode(c.Viewer.Mode)
	return m
}

// CacheFormat returns the parsed cache format, compressed when invalid.
func (c *Config) CacheFormat() cache.Format {
	f, err := cache.ParseFormat(c.Cache.Format)
	if err != nil {
		return cache.FormatCompressed
	}
	return f
}
