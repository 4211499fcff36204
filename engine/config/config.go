package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	MinFramesInFlight = 1
	MaxFramesInFlight = 3
)

type Window struct {
	Title  string `toml:"title"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	PosX   int32  `toml:"pos_x"`
	PosY   int32  `toml:"pos_y"`
}

type Log struct {
	Level string `toml:"level"`
}

type Debug struct {
	EnableValidation bool `toml:"enable_validation"`
	// Severity is the lowest message severity forwarded by the validation layers.
	Severity string `toml:"severity"`
}

type Renderer struct {
	FramesInFlight uint32     `toml:"frames_in_flight"`
	VertexShader   string     `toml:"vertex_shader"`
	FragmentShader string     `toml:"fragment_shader"`
	ClearColor     [4]float32 `toml:"clear_color"`
	Debug          Debug      `toml:"debug"`
}

type Camera struct {
	Eye        [3]float32 `toml:"eye"`
	Target     [3]float32 `toml:"target"`
	Up         [3]float32 `toml:"up"`
	FovDegrees float32    `toml:"fov_degrees"`
	Near       float32    `toml:"near"`
	Far        float32    `toml:"far"`
}

type Assets struct {
	Dir       string  `toml:"dir"`
	Watch     bool    `toml:"watch"`
	Mesh      string  `toml:"mesh"`
	MeshScale float32 `toml:"mesh_scale"`
}

type Config struct {
	Window   Window   `toml:"window"`
	Log      Log      `toml:"log"`
	Renderer Renderer `toml:"renderer"`
	Camera   Camera   `toml:"camera"`
	Assets   Assets   `toml:"assets"`
}

func Default() *Config {
	return &Config{
		Window: Window{
			Title:  "Bouncing Ball",
			Width:  800,
			Height: 600,
			PosX:   100,
			PosY:   100,
		},
		Log: Log{Level: "debug"},
		Renderer: Renderer{
			FramesInFlight: 2,
			VertexShader:   "build/shaders/vert.spv",
			FragmentShader: "build/shaders/frag.spv",
			ClearColor:     [4]float32{0.2, 0.2, 0.3, 1.0},
			Debug: Debug{
				EnableValidation: true,
				Severity:         "warning",
			},
		},
		Camera: Camera{
			Eye:        [3]float32{0, 0, 5},
			Target:     [3]float32{0, 0, 0},
			Up:         [3]float32{0, 1, 0},
			FovDegrees: 45,
			Near:       0.1,
			Far:        10,
		},
		Assets: Assets{
			Dir:       "assets",
			Watch:     true,
			MeshScale: 1.0,
		},
	}
}

// Load overlays the file at path on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode overlays TOML data on cfg and validates the result. Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return errors.New(strict.String())
		}
		return err
	}
	return cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) Validate() error {
	var errs []error
	if c.Window.Width == 0 || c.Window.Height == 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be non-zero", c.Window.Width, c.Window.Height))
	}
	if n := c.Renderer.FramesInFlight; n < MinFramesInFlight || n > MaxFramesInFlight {
		errs = append(errs, fmt.Errorf("frames_in_flight %d outside [%d, %d]", n, MinFramesInFlight, MaxFramesInFlight))
	}
	if c.Renderer.VertexShader == "" || c.Renderer.FragmentShader == "" {
		errs = append(errs, errors.New("shader paths must be set"))
	}
	switch strings.ToLower(c.Renderer.Debug.Severity) {
	case "error", "warning", "info", "verbose":
	default:
		errs = append(errs, fmt.Errorf("unknown debug severity %q", c.Renderer.Debug.Severity))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("clip planes near=%f far=%f are invalid", c.Camera.Near, c.Camera.Far))
	}
	if c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180 {
		errs = append(errs, fmt.Errorf("fov_degrees %f outside (0, 180)", c.Camera.FovDegrees))
	}
	if c.Assets.MeshScale <= 0 {
		errs = append(errs, fmt.Errorf("mesh_scale %f must be positive", c.Assets.MeshScale))
	}
	return errors.Join(errs...)
}
