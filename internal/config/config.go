// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics" toml:"graphics"`
	Camera   CameraConfig   `yaml:"camera" toml:"camera"`
	Data     DataConfig     `yaml:"data" toml:"data"`
	Debug    DebugConfig    `yaml:"debug" toml:"debug"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width          int  `yaml:"width" toml:"width"`
	Height         int  `yaml:"height" toml:"height"`
	Fullscreen     bool `yaml:"fullscreen" toml:"fullscreen"`
	VSync          bool `yaml:"vsync" toml:"vsync"`
	FPSLimit       int  `yaml:"fps_limit" toml:"fps_limit"`
	MaxTextureSize int  `yaml:"max_texture_size" toml:"max_texture_size"` // 0 keeps source size
}

// CameraConfig holds projection and interaction constants.
type CameraConfig struct {
	OrbitSensitivity float32 `yaml:"orbit_sensitivity" toml:"orbit_sensitivity"`
	MinRadius        float32 `yaml:"min_radius" toml:"min_radius"`
	FovDegrees       float32 `yaml:"fov_degrees" toml:"fov_degrees"`
	Near             float32 `yaml:"near" toml:"near"`
	Far              float32 `yaml:"far" toml:"far"`
}

// DataConfig holds dataset locations.
type DataConfig struct {
	Root       string `yaml:"root" toml:"root"`
	Manifest   string `yaml:"manifest" toml:"manifest"`     // relative to Root
	ShaderDir  string `yaml:"shader_dir" toml:"shader_dir"` // empty uses embedded shaders
	Watch      bool   `yaml:"watch" toml:"watch"`
	StartScene string `yaml:"start_scene" toml:"start_scene"`
}

// DebugConfig holds diagnostic settings.
type DebugConfig struct {
	Lines         bool   `yaml:"lines" toml:"lines"`
	ScreenshotDir string `yaml:"screenshot_dir" toml:"screenshot_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
		},
		Camera: CameraConfig{
			OrbitSensitivity: 0.01,
			MinRadius:        0.05,
			FovDegrees:       45,
			Near:             0.01,
			Far:              8000,
		},
		Data: DataConfig{
			Root:       "data",
			Manifest:   "scenes.yaml",
			StartScene: "void",
		},
		Debug: DebugConfig{
			Lines:         true,
			ScreenshotDir: "screenshots",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
