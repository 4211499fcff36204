package engine

import (
	"path/filepath"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/spaghettifunk/rebound/engine/assets"
	"github.com/spaghettifunk/rebound/engine/assets/loaders"
	"github.com/spaghettifunk/rebound/engine/config"
	"github.com/spaghettifunk/rebound/engine/core"
	"github.com/spaghettifunk/rebound/engine/math"
	"github.com/spaghettifunk/rebound/engine/platform"
	"github.com/spaghettifunk/rebound/engine/renderer"
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
	"github.com/spaghettifunk/rebound/engine/renderer/vulkan"
)

// frames slower than this are simulated as this long
const maxDeltaTime = 0.1

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *config.Config
	sessionID    uuid.UUID

	isRunning   atomic.Bool
	isSuspended bool

	events       *core.EventSystem
	platform     *platform.Platform
	assetManager *assets.AssetManager
	renderer     *renderer.Renderer

	width    uint32
	height   uint32
	clock    *core.Clock
	metrics  *core.Metrics
	lastTime float64

	logger *log.Logger
}

func New(g *Game, cfg *config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = NewApplicationConfig(cfg)
	}
	core.SetLogLevel(g.ApplicationConfig.LogLevel)

	am, err := assets.NewAssetManager()
	if err != nil {
		return nil, err
	}

	events := core.NewEventSystem()
	sessionID := uuid.New()
	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       cfg,
		sessionID:    sessionID,
		events:       events,
		platform:     platform.New(events),
		assetManager: am,
		width:        g.ApplicationConfig.StartWidth,
		height:       g.ApplicationConfig.StartHeight,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		logger:       core.LogWith("session", sessionID),
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	e.logger.Info("initializing engine", "title", e.gameInstance.ApplicationConfig.Name)

	// register some events
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	e.events.Register(core.EVENT_CODE_KEY_RELEASED, e, e.onKey)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)

	appConfig := e.gameInstance.ApplicationConfig
	if err := e.platform.Startup(appConfig.Name, appConfig.StartPosX, appConfig.StartPosY, appConfig.StartWidth, appConfig.StartHeight); err != nil {
		return core.NewFatalInitError("platform startup", err)
	}

	if err := e.assetManager.Initialize(e.config.Assets.Dir, e.config.Assets.Watch); err != nil {
		return core.NewFatalInitError("asset manager", err)
	}

	mesh, err := e.gameInstance.FnInitialize()
	if err != nil {
		return core.NewFatalInitError("game initialize", err)
	}
	if path := e.config.Assets.Mesh; path != "" {
		loaded, err := e.loadMesh(path)
		if err != nil {
			return core.NewFatalInitError("load mesh", err)
		}
		mesh = loaded
		if e.config.Assets.Watch {
			if err := e.assetManager.Watch(path); err != nil {
				e.logger.Warn("mesh hot reload unavailable", "path", path, "err", err)
			}
		}
	}

	backend := vulkan.New(e.platform, newBackendConfig(e.config))
	e.renderer = renderer.New(backend, newCamera(e.config))
	if err := e.renderer.Initialize(e.platform, mesh); err != nil {
		return err
	}

	width, height := e.platform.FramebufferSize()
	e.width, e.height = uint32(width), uint32(height)
	if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
		return err
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for e.isRunning.Load() {
		if !e.platform.PumpMessages() {
			e.isRunning.Store(false)
			break
		}

		if e.isSuspended {
			e.platform.WaitEvents()
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := clampDelta(currentTime - e.lastTime)
		frameStartTime := e.platform.AbsoluteTime()

		if err := e.applyReloads(e.assetManager.DrainReloads()); err != nil {
			return err
		}

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogError("Game update failed, shutting down.")
			return err
		}

		packet := metadata.NewRenderPacket(delta)
		if err := e.gameInstance.FnRender(packet); err != nil {
			core.LogError("Game render failed, shutting down.")
			return err
		}

		if err := e.renderer.RenderFrame(packet); err != nil {
			e.logger.Error("frame failed, stopping", "frame", e.renderer.Orchestrator().FrameNumber(), "err", err)
			return err
		}

		if e.metrics.Update(e.platform.AbsoluteTime() - frameStartTime) {
			e.logger.Debug("frame metrics",
				"fps", e.metrics.FPS(),
				"frame_ms", e.metrics.FrameTime(),
				"generation", e.renderer.Orchestrator().Surface().Generation)
		}

		e.lastTime = currentTime
	}
	return nil
}

// Stop asks the run loop to return after the current tick. Safe to call
// from any goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	var errs []error
	if e.renderer != nil {
		if err := e.renderer.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.assetManager.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	e.events.Shutdown()
	if err := e.platform.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	e.logger.Info("engine shut down")
	return nil
}

// ApplicationGetFramebufferSize returns the width and height (in this order)
// of the application Framebuffer
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) loadMesh(path string) (*metadata.MeshData, error) {
	res, err := e.assetManager.LoadAsset(path, metadata.ResourceTypeModel, &loaders.ModelParams{Scale: e.config.Assets.MeshScale})
	if err != nil {
		return nil, err
	}
	mesh, ok := res.Data.(*metadata.MeshData)
	if !ok {
		return nil, pkgerrors.Wrapf(core.ErrInvalidModel, "%s loaded as %T", path, res.Data)
	}
	return mesh, nil
}

// applyReloads swaps in the configured mesh when it changed on disk. A file
// that fails to parse keeps the current mesh on screen.
func (e *Engine) applyReloads(requests []assets.ReloadRequest) error {
	meshPath := e.config.Assets.Mesh
	for _, r := range requests {
		switch {
		case r.Type == metadata.ResourceTypeModel && isSamePath(r.Path, meshPath):
			mesh, err := e.loadMesh(r.Path)
			if err != nil {
				e.logger.Warn("mesh reload failed, keeping current geometry", "path", r.Path, "err", err)
				continue
			}
			if err := e.renderer.ReplaceGeometry(mesh); err != nil {
				return err
			}
		case r.Type == metadata.ResourceTypeShader:
			e.logger.Info("shader changed on disk, restart to apply", "path", r.Path)
		}
	}
	return nil
}

func isSamePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func clampDelta(delta float64) float64 {
	return math.Clamp(delta, 0, maxDeltaTime)
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, context core.EventContext) bool {
	if code == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.Stop()
		return true
	}
	return false
}

func (e *Engine) onKey(code core.SystemEventCode, sender interface{}, context core.EventContext) bool {
	keyCode := context.Data.U16[0]
	if code == core.EVENT_CODE_KEY_PRESSED && keyCode == platform.KeyEscape {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		// Block anything else from processing this.
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, context core.EventContext) bool {
	width := context.Data.U32[0]
	height := context.Data.U32[1]

	// Check if different. If so, trigger a resize event.
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.renderer != nil {
		e.renderer.NotifyResized()
	}
	if err := e.gameInstance.FnOnResize(width, height); err != nil {
		core.LogError(err.Error())
	}
	return false
}
