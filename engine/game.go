package engine

import (
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
}

// Initialize returns the mesh drawn from the first frame on.
type Initialize func() (*metadata.MeshData, error)
type Update func(deltaTime float64) error

// Render fills in the transform of the packet.
type Render func(packet *metadata.RenderPacket) error
type OnResize func(width uint32, height uint32) error
