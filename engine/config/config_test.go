package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Renderer.FramesInFlight != 2 {
		t.Fatalf("frames in flight = %d", cfg.Renderer.FramesInFlight)
	}
	if cfg.Window.Width != 800 || cfg.Window.Height != 600 {
		t.Fatalf("window = %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Title != "Bouncing Ball" {
		t.Fatalf("title = %q", cfg.Window.Title)
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[window]
width = 1024

[renderer]
frames_in_flight = 3

[renderer.debug]
severity = "verbose"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Width != 1024 || cfg.Window.Height != 600 {
		t.Fatalf("window = %dx%d", cfg.Window.Width, cfg.Window.Height)
	}
	if cfg.Renderer.FramesInFlight != 3 || cfg.Renderer.Debug.Severity != "verbose" {
		t.Fatalf("renderer = %+v", cfg.Renderer)
	}
	// untouched keys keep their default
	if !cfg.Renderer.Debug.EnableValidation {
		t.Fatal("enable_validation lost its default")
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }, "window size"},
		{"no frames", func(c *Config) { c.Renderer.FramesInFlight = 0 }, "frames_in_flight"},
		{"too many frames", func(c *Config) { c.Renderer.FramesInFlight = 4 }, "frames_in_flight"},
		{"severity", func(c *Config) { c.Renderer.Debug.Severity = "loud" }, "severity"},
		{"clip planes", func(c *Config) { c.Camera.Far = c.Camera.Near }, "clip planes"},
		{"fov", func(c *Config) { c.Camera.FovDegrees = 180 }, "fov_degrees"},
		{"scale", func(c *Config) { c.Assets.MeshScale = 0 }, "mesh_scale"},
		{"shader", func(c *Config) { c.Renderer.VertexShader = "" }, "shader paths"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestDecodeUnknownKey(t *testing.T) {
	cfg := Default()
	if err := Decode([]byte("[window]\ncolour = 3\n"), cfg); err == nil {
		t.Fatal("unknown key accepted")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := Save(path, Default()); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Camera != Default().Camera {
		t.Fatalf("camera = %+v", cfg.Camera)
	}
}
