// Package config holds the tunables used to compose and drive the scene.
//
// Every value has a built-in default matching the reference scene; an optional
// TOML file and command line flags may override them.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Bloom holds the bloom stage parameters.
type Bloom struct {
	Enabled   bool    `toml:"enabled"`
	Threshold float32 `toml:"threshold"`
	Weight    float32 `toml:"weight"`
	Kernel    int     `toml:"kernel"`
	Scale     float32 `toml:"scale"`
}

// ChromaticAberration holds the chromatic aberration stage parameters.
type ChromaticAberration struct {
	Enabled          bool    `toml:"enabled"`
	AberrationAmount float32 `toml:"aberration_amount"`
	RadialIntensity  float32 `toml:"radial_intensity"`
}

// Scene describes everything the scene builder composes.
type Scene struct {
	Name           string     `toml:"name"`
	CameraName     string     `toml:"camera_name"`
	CameraPosition [3]float32 `toml:"camera_position"`
	CameraTarget   [3]float32 `toml:"camera_target"`

	EnvironmentURI string  `toml:"environment"`
	SkyboxSize     float32 `toml:"skybox_size"`
	SkyboxBlur     float32 `toml:"skybox_blur"`

	ModelURI          string  `toml:"model"`
	TargetMesh        string  `toml:"target_mesh"`
	MaterialName      string  `toml:"material_name"`
	MaterialRoughness float32 `toml:"material_roughness"`

	PipelineName        string              `toml:"pipeline_name"`
	PipelineHDR         bool                `toml:"pipeline_hdr"`
	Bloom               Bloom               `toml:"bloom"`
	ChromaticAberration ChromaticAberration `toml:"chromatic_aberration"`
}

// Duration is a time.Duration read from strings such as "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Loader controls background asset loading.
type Loader struct {
	// Per-load timeout; zero disables it.
	Timeout Duration `toml:"timeout"`
}

// Window controls the display target.
type Window struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	VSync  bool   `toml:"vsync"`
}

// Headless controls the windowless runner.
type Headless struct {
	Hz     int    `toml:"hz"`
	Frames uint64 `toml:"frames"`
	Out    string `toml:"out"`
}

type Config struct {
	Scene    Scene    `toml:"scene"`
	Loader   Loader   `toml:"loader"`
	Window   Window   `toml:"window"`
	Headless Headless `toml:"headless"`
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		Scene: Scene{
			Name:           "scene",
			CameraName:     "camera1",
			CameraPosition: [3]float32{0, 0, 4},
			CameraTarget:   [3]float32{0, 0, 0},

			EnvironmentURI: "https://dreamgirl.janefan.xyz/assets3d/peppermint_blue.env",
			SkyboxSize:     10000,
			SkyboxBlur:     0.1,

			ModelURI:          "https://dreamgirl.janefan.xyz/assets3d/demo-heart.glb",
			TargetMesh:        "Heart",
			MaterialName:      "pbr",
			MaterialRoughness: 0.2,

			PipelineName: "defaultPipeline",
			PipelineHDR:  false,
			Bloom: Bloom{
				Enabled:   true,
				Threshold: 0.75,
				Weight:    1.5,
				Kernel:    64,
				Scale:     0.5,
			},
			ChromaticAberration: ChromaticAberration{
				Enabled:          true,
				AberrationAmount: 100,
				RadialIntensity:  0.8,
			},
		},
		Window: Window{
			Title:  "heartglow",
			Width:  1024,
			Height: 768,
			VSync:  true,
		},
		Headless: Headless{
			Hz:     60,
			Frames: 120,
			Out:    "frame.png",
		},
	}
}

// Load reads a TOML file on top of the defaults. Keys missing from the file
// keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: could not read %s: %w", path, err)
	}
	if err = toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: could not parse %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks for values that would leave the scene unusable.
func (c Config) Validate() error {
	switch {
	case c.Scene.ModelURI == "":
		return fmt.Errorf("%w: empty model uri", ErrInvalidConfig)
	case c.Scene.EnvironmentURI == "":
		return fmt.Errorf("%w: empty environment uri", ErrInvalidConfig)
	case c.Scene.Bloom.Kernel < 0:
		return fmt.Errorf("%w: negative bloom kernel %d", ErrInvalidConfig, c.Scene.Bloom.Kernel)
	case c.Scene.Bloom.Scale <= 0 || c.Scene.Bloom.Scale > 1:
		return fmt.Errorf("%w: bloom scale %v outside (0, 1]", ErrInvalidConfig, c.Scene.Bloom.Scale)
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	case c.Loader.Timeout.Duration < 0:
		return fmt.Errorf("%w: negative loader timeout", ErrInvalidConfig)
	}
	return nil
}
