package engine

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/rebound/engine/config"
	"github.com/spaghettifunk/rebound/engine/core"
	"github.com/spaghettifunk/rebound/engine/math"
	"github.com/spaghettifunk/rebound/engine/renderer/components"
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX uint32
	// Window starting position y axis, if applicable.
	StartPosY uint32
	// Window starting width, if applicable.
	StartWidth uint32
	// Window starting height, if applicable.
	StartHeight uint32
	// The application name used in windowing, if applicable.
	Name     string
	LogLevel core.LogLevel
}

// NewApplicationConfig derives the window settings from the loaded config.
// An unknown log level falls back to debug.
func NewApplicationConfig(cfg *config.Config) *ApplicationConfig {
	level, err := core.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		core.LogWarn("%s, using debug", err)
	}
	return &ApplicationConfig{
		StartPosX:   uint32(max(cfg.Window.PosX, 0)),
		StartPosY:   uint32(max(cfg.Window.PosY, 0)),
		StartWidth:  cfg.Window.Width,
		StartHeight: cfg.Window.Height,
		Name:        cfg.Window.Title,
		LogLevel:    level,
	}
}

func newBackendConfig(cfg *config.Config) *metadata.RendererBackendConfig {
	return &metadata.RendererBackendConfig{
		ApplicationName:  cfg.Window.Title,
		FramesInFlight:   cfg.Renderer.FramesInFlight,
		VertexShader:     cfg.Renderer.VertexShader,
		FragmentShader:   cfg.Renderer.FragmentShader,
		ClearColour:      mgl32.Vec4(cfg.Renderer.ClearColor),
		EnableValidation: cfg.Renderer.Debug.EnableValidation,
		Severity:         metadata.ParseDebugSeverity(cfg.Renderer.Debug.Severity),
	}
}

func newCamera(cfg *config.Config) *components.Camera {
	camera := components.NewCamera()
	camera.SetPosition(mgl32.Vec3(cfg.Camera.Eye))
	camera.LookAt(mgl32.Vec3(cfg.Camera.Target), mgl32.Vec3(cfg.Camera.Up))
	camera.FovRadians = math.DegToRad(cfg.Camera.FovDegrees)
	camera.NearClip = cfg.Camera.Near
	camera.FarClip = cfg.Camera.Far
	return camera
}
