package renderer

import "github.com/spaghettifunk/rebound/engine/renderer/metadata"

// Window is the part of the platform layer the renderer depends on.
type Window interface {
	// FramebufferSize reports the drawable size in pixels. Zero while minimized.
	FramebufferSize() (width, height int)
	// WaitEvents blocks until the windowing system delivers an event.
	WaitEvents()
}

/**
 * @brief The GPU side of the frame protocol. Slots are indices in
 * [0, FramesInFlight()). The backend never decides when to rebuild the
 * surface; it only reports core.ErrSurfaceStale and lets the caller react.
 */
type RendererBackend interface {
	Initialize() error
	Shutdown() error
	FramesInFlight() uint32

	// WaitForFence blocks, without timeout, until the last submission on slot completed.
	WaitForFence(slot uint32) error
	ResetFence(slot uint32) error
	// AcquireNextImage signals the slot's image-available semaphore once the image is ready.
	AcquireNextImage(slot uint32) (uint32, error)
	// UniformMemory is the slot's persistently mapped, host-coherent uniform buffer.
	UniformMemory(slot uint32) []byte
	RecordCommands(slot, imageIndex uint32) error
	Submit(slot uint32) error
	Present(slot, imageIndex uint32) error

	// RebuildSurface tears down the current surface generation, if any, and
	// builds the next one for the given window size.
	RebuildSurface(windowExtent metadata.Extent2D) (metadata.SurfaceDescription, error)
	WaitIdle() error
	SetGeometry(mesh *metadata.MeshData) error
}
