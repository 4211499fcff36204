package renderer

import (
	"github.com/charmbracelet/log"
	pkgerrors "github.com/pkg/errors"

	"github.com/spaghettifunk/rebound/engine/containers"
	"github.com/spaghettifunk/rebound/engine/core"
	"github.com/spaghettifunk/rebound/engine/renderer/components"
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

type SurfaceState uint8

const (
	SurfaceUnbuilt SurfaceState = iota
	SurfaceBuilt
	SurfaceInvalidated
)

func (s SurfaceState) String() string {
	switch s {
	case SurfaceBuilt:
		return "built"
	case SurfaceInvalidated:
		return "invalidated"
	}
	return "unbuilt"
}

/**
 * @brief Drives one tick of the frame protocol per DrawFrame call:
 * wait, acquire, update, record, submit, present, advance.
 */
type FrameOrchestrator struct {
	backend RendererBackend
	window  Window
	camera  *components.Camera

	slots   *containers.Ring[uint32]
	state   SurfaceState
	surface metadata.SurfaceDescription

	resizePending bool
	frameNumber   uint64

	logger *log.Logger
}

func NewFrameOrchestrator(backend RendererBackend, window Window, camera *components.Camera) *FrameOrchestrator {
	n := backend.FramesInFlight()
	indices := make([]uint32, n)
	for i := range indices {
		indices[i] = uint32(i)
	}
	return &FrameOrchestrator{
		backend: backend,
		window:  window,
		camera:  camera,
		slots:   containers.NewRing(indices),
		state:   SurfaceUnbuilt,
		logger:  core.LogWith("component", "orchestrator"),
	}
}

func (o *FrameOrchestrator) State() SurfaceState {
	return o.state
}

func (o *FrameOrchestrator) Surface() metadata.SurfaceDescription {
	return o.surface
}

// CurrentSlot is the frame slot the next tick will use.
func (o *FrameOrchestrator) CurrentSlot() uint32 {
	return o.slots.Current()
}

// FrameNumber counts ticks that reached presentation.
func (o *FrameOrchestrator) FrameNumber() uint64 {
	return o.frameNumber
}

// NotifyResized flags the surface for recreation after the next present.
func (o *FrameOrchestrator) NotifyResized() {
	o.resizePending = true
}

// Build creates the first surface generation.
func (o *FrameOrchestrator) Build() error {
	if o.state != SurfaceUnbuilt {
		return nil
	}
	if err := o.recreateSurface(); err != nil {
		return core.NewFatalInitError("build surface", err)
	}
	return nil
}

// DrawFrame runs one tick. A stale surface is handled here and never
// returned; every error that escapes is a *core.FatalRuntimeError.
func (o *FrameOrchestrator) DrawFrame(packet *metadata.RenderPacket) error {
	if o.state == SurfaceUnbuilt {
		return core.NewFatalRuntimeError("draw frame", core.ErrNotInitialized)
	}
	if packet == nil {
		return core.NewFatalRuntimeError("draw frame", pkgerrors.New("nil render packet"))
	}
	if o.state == SurfaceInvalidated {
		if err := o.recreateSurface(); err != nil {
			return core.NewFatalRuntimeError("recreate surface", err)
		}
	}

	slot := o.slots.Current()

	if err := o.backend.WaitForFence(slot); err != nil {
		return core.NewFatalRuntimeError("wait for fence", err)
	}

	imageIndex, err := o.backend.AcquireNextImage(slot)
	if err != nil {
		if core.IsSurfaceStale(err) {
			// Nothing was submitted on this slot; it stays current for the retry.
			o.invalidate("acquire")
			if err := o.recreateSurface(); err != nil {
				return core.NewFatalRuntimeError("recreate surface", err)
			}
			return nil
		}
		return core.NewFatalRuntimeError("acquire next image", err)
	}

	ubo := o.camera.Uniforms(packet.Transform, o.surface.Extent)
	if err := ubo.WriteTo(o.backend.UniformMemory(slot)); err != nil {
		return core.NewFatalRuntimeError("update uniforms", err)
	}

	// The fence is only reset once we know this tick will submit.
	if err := o.backend.ResetFence(slot); err != nil {
		return core.NewFatalRuntimeError("reset fence", err)
	}
	if err := o.backend.RecordCommands(slot, imageIndex); err != nil {
		return core.NewFatalRuntimeError("record commands", err)
	}
	if err := o.backend.Submit(slot); err != nil {
		return core.NewFatalRuntimeError("submit", err)
	}

	err = o.backend.Present(slot, imageIndex)
	stale := core.IsSurfaceStale(err)
	if err != nil && !stale {
		return core.NewFatalRuntimeError("present", err)
	}
	if stale || o.resizePending {
		if stale {
			o.invalidate("present")
		} else {
			o.invalidate("resize")
		}
		if err := o.recreateSurface(); err != nil {
			return core.NewFatalRuntimeError("recreate surface", err)
		}
	}

	o.slots.Advance()
	o.frameNumber++
	return nil
}

func (o *FrameOrchestrator) invalidate(reason string) {
	o.state = SurfaceInvalidated
	o.logger.Debug("surface invalidated", "reason", reason, "generation", o.surface.Generation)
}

// recreateSurface follows the fixed order: wait out a minimized window,
// idle the device, then rebuild the extent-dependent resources.
func (o *FrameOrchestrator) recreateSurface() error {
	if o.state == SurfaceBuilt {
		o.state = SurfaceInvalidated
	}

	width, height := o.window.FramebufferSize()
	for width == 0 || height == 0 {
		o.window.WaitEvents()
		width, height = o.window.FramebufferSize()
	}

	if err := o.backend.WaitIdle(); err != nil {
		return err
	}

	surface, err := o.backend.RebuildSurface(metadata.Extent2D{Width: uint32(width), Height: uint32(height)})
	if err != nil {
		return err
	}
	o.surface = surface
	o.state = SurfaceBuilt
	o.resizePending = false

	o.logger.Info("surface built",
		"generation", surface.Generation,
		"surface", surface.ID,
		"width", surface.Extent.Width,
		"height", surface.Extent.Height,
		"images", surface.ImageCount)
	return nil
}

// Rebuild forces a surface recreation outside of the tick.
func (o *FrameOrchestrator) Rebuild() error {
	if err := o.recreateSurface(); err != nil {
		return core.NewFatalRuntimeError("recreate surface", err)
	}
	return nil
}
