package renderer

import (
	"github.com/spaghettifunk/rebound/engine/core"
	"github.com/spaghettifunk/rebound/engine/renderer/components"
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

type RendererType uint8

const (
	Vulkan RendererType = iota
)

type Renderer struct {
	backend      RendererBackend
	camera       *components.Camera
	orchestrator *FrameOrchestrator
}

func New(backend RendererBackend, camera *components.Camera) *Renderer {
	if camera == nil {
		camera = components.NewCamera()
	}
	return &Renderer{
		backend: backend,
		camera:  camera,
	}
}

// Initialize brings up the backend, uploads the initial mesh and builds the
// first surface generation. Every failure is a *core.FatalInitError.
func (r *Renderer) Initialize(window Window, mesh *metadata.MeshData) error {
	if err := r.backend.Initialize(); err != nil {
		return core.NewFatalInitError("renderer backend", err)
	}
	if err := r.backend.SetGeometry(mesh); err != nil {
		return core.NewFatalInitError("initial geometry", err)
	}
	r.orchestrator = NewFrameOrchestrator(r.backend, window, r.camera)
	if err := r.orchestrator.Build(); err != nil {
		return err
	}
	core.LogInfo("renderer initialized with %d frames in flight", r.backend.FramesInFlight())
	return nil
}

func (r *Renderer) RenderFrame(packet *metadata.RenderPacket) error {
	if r.orchestrator == nil {
		return core.NewFatalRuntimeError("render frame", core.ErrNotInitialized)
	}
	return r.orchestrator.DrawFrame(packet)
}

func (r *Renderer) NotifyResized() {
	if r.orchestrator != nil {
		r.orchestrator.NotifyResized()
	}
}

// ReplaceGeometry swaps the mesh between ticks. The device is idled first
// because no frame tracks which geometry it drew.
func (r *Renderer) ReplaceGeometry(mesh *metadata.MeshData) error {
	if r.orchestrator == nil {
		return core.NewFatalRuntimeError("replace geometry", core.ErrNotInitialized)
	}
	if err := r.backend.WaitIdle(); err != nil {
		return core.NewFatalRuntimeError("replace geometry", err)
	}
	if err := r.backend.SetGeometry(mesh); err != nil {
		return core.NewFatalRuntimeError("replace geometry", err)
	}
	core.LogInfo("geometry replaced: %d vertices, %d indices", mesh.VertexCount(), mesh.IndexCount())
	return nil
}

func (r *Renderer) Camera() *components.Camera {
	return r.camera
}

func (r *Renderer) Orchestrator() *FrameOrchestrator {
	return r.orchestrator
}

func (r *Renderer) Shutdown() error {
	if r.orchestrator != nil {
		if err := r.backend.WaitIdle(); err != nil {
			core.LogWarn("device wait idle before shutdown failed: %s", err)
		}
	}
	r.orchestrator = nil
	return r.backend.Shutdown()
}
