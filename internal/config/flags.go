package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagMode       = flag.String("mode", "", "Draw mode: face, wireframe or point")
	flagShader     = flag.String("shader", "", "Lighting model: phong, blinn_phong or lambertian")
	flagShaderDir  = flag.String("shader-dir", "", "Load shaders from this directory instead of the built-in ones")
	flagWindowed   = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagCacheDir   = flag.String("cache-dir", "", "Directory for combined mesh caches")
	flagNoCache    = flag.Bool("no-cache", false, "Do not read or write mesh caches")
	flagSaveConfig = flag.Bool("save-config", false, "Write the effective config back to the config file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SaveConfig reports whether -save-config was given.
func SaveConfig() bool {
	return *flagSaveConfig
}

// Args returns the positional arguments: the meshes to open.
func Args() []string {
	return flag.Args()
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Viewer.ShowBBox = true
	}
	if *flagMode != "" {
		cfg.Viewer.Mode = *flagMode
	}
	if *flagShader != "" {
		cfg.Viewer.Shader = *flagShader
	}
	if *flagShaderDir != "" {
		cfg.Viewer.ShaderDir = *flagShaderDir
	}
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagCacheDir != "" {
		cfg.Cache.Dir = *flagCacheDir
	}
	if *flagNoCache {
		cfg.Cache.Write = false
	}
}
