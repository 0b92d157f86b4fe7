// Package config loads the TOML run configuration. Every field has a
// default matching the classic demo constants, so an empty or missing
// file yields a runnable setup.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/driftgl/drift/common"
	"github.com/driftgl/drift/engine/layout"
)

// SceneConfig controls the packed scene build and the animation step.
type SceneConfig struct {
	// InstanceCount is the number of object instances packed into the scene.
	InstanceCount int `toml:"instance_count"`
	// MaxMappings caps the total index count across all instances.
	MaxMappings uint64 `toml:"max_mappings"`
	// VelocityMin and VelocityMax bound the per-axis uniform velocity draw.
	VelocityMin float32 `toml:"velocity_min"`
	VelocityMax float32 `toml:"velocity_max"`
	// TimeStep is the elapsed-time increment applied each frame.
	TimeStep float32 `toml:"time_step"`
	// Seed seeds the velocity generator; 0 means time-seeded.
	Seed int64 `toml:"seed"`
	// MeshPaths lists the mesh record files instanced into the scene.
	// Empty means the built-in grid mesh.
	MeshPaths []string `toml:"mesh_paths"`
}

// WindowConfig controls the output window.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// RendererConfig controls presentation and adapter selection.
type RendererConfig struct {
	// VSync waits for vertical blank when presenting.
	VSync bool `toml:"vsync"`
	// MSAASamples is the multisample count (1 disables MSAA).
	MSAASamples uint32 `toml:"msaa_samples"`
	// DeviceIndex selects the GPU adapter; 0 is the platform default,
	// any other value requests the software fallback adapter.
	DeviceIndex int `toml:"device_index"`
}

// VerifyConfig controls the verification run mode.
type VerifyConfig struct {
	// Frames is how many animation frames to advance before dumping.
	Frames int `toml:"frames"`
	// OutputPath is where the animated position dump is written.
	OutputPath string `toml:"output_path"`
}

// Config is the full run configuration.
type Config struct {
	Scene    SceneConfig    `toml:"scene"`
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Verify   VerifyConfig   `toml:"verify"`
}

// Default returns the configuration matching the classic demo constants:
// 1500 instances, a 0.01 time step, and a 1366x768 window.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Scene: SceneConfig{
			InstanceCount: 1500,
			MaxMappings:   layout.MaxMappings,
			VelocityMin:   -1.0,
			VelocityMax:   1.0,
			TimeStep:      0.01,
		},
		Window: WindowConfig{
			Title:  "drift",
			Width:  1366,
			Height: 768,
		},
		Renderer: RendererConfig{
			VSync:       false,
			MSAASamples: 1,
		},
		Verify: VerifyConfig{
			Frames:     1,
			OutputPath: "positions.bin",
		},
	}
}

// Load reads a TOML configuration file and fills unset fields with the
// defaults. An empty path returns the defaults unchanged.
//
// Parameters:
//   - path: the TOML file path, or "" for defaults
//
// Returns:
//   - Config: the loaded configuration
//   - error: an error if the file cannot be read or parsed
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var loaded Config
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	defaults := Default()
	loaded.Scene.InstanceCount = common.Coalesce(loaded.Scene.InstanceCount, defaults.Scene.InstanceCount)
	loaded.Scene.MaxMappings = common.Coalesce(loaded.Scene.MaxMappings, defaults.Scene.MaxMappings)
	if loaded.Scene.VelocityMin == 0 && loaded.Scene.VelocityMax == 0 {
		loaded.Scene.VelocityMin = defaults.Scene.VelocityMin
		loaded.Scene.VelocityMax = defaults.Scene.VelocityMax
	}
	loaded.Scene.TimeStep = common.Coalesce(loaded.Scene.TimeStep, defaults.Scene.TimeStep)
	loaded.Window.Title = common.Coalesce(loaded.Window.Title, defaults.Window.Title)
	loaded.Window.Width = common.Coalesce(loaded.Window.Width, defaults.Window.Width)
	loaded.Window.Height = common.Coalesce(loaded.Window.Height, defaults.Window.Height)
	loaded.Renderer.MSAASamples = common.Coalesce(loaded.Renderer.MSAASamples, defaults.Renderer.MSAASamples)
	loaded.Verify.Frames = common.Coalesce(loaded.Verify.Frames, defaults.Verify.Frames)
	loaded.Verify.OutputPath = common.Coalesce(loaded.Verify.OutputPath, defaults.Verify.OutputPath)

	if err := validate(loaded); err != nil {
		return Config{}, err
	}
	return loaded, nil
}

func validate(cfg Config) error {
	if cfg.Scene.InstanceCount < 0 {
		return fmt.Errorf("config: instance_count must be non-negative, got %d", cfg.Scene.InstanceCount)
	}
	if cfg.Scene.VelocityMax < cfg.Scene.VelocityMin {
		return fmt.Errorf("config: velocity_max %v below velocity_min %v", cfg.Scene.VelocityMax, cfg.Scene.VelocityMin)
	}
	if cfg.Scene.TimeStep <= 0 {
		return fmt.Errorf("config: time_step must be positive, got %v", cfg.Scene.TimeStep)
	}
	if cfg.Window.Width <= 0 || cfg.Window.Height <= 0 {
		return fmt.Errorf("config: window size %dx%d is invalid", cfg.Window.Width, cfg.Window.Height)
	}
	return nil
}
