package platform

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	pkgerrors "github.com/pkg/errors"

	"github.com/spaghettifunk/rebound/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

type Platform struct {
	Window *glfw.Window
	events *core.EventSystem

	startTime float64
}

func New(events *core.EventSystem) *Platform {
	return &Platform{
		Window: nil,
		events: events,
	}
}

func (p *Platform) Startup(applicationName string, x, y, width, height uint32) error {
	if err := glfw.Init(); err != nil {
		return pkgerrors.Wrap(err, "failed to initialize glfw")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return pkgerrors.Wrap(core.ErrNoCapableDevice, "glfw reports no Vulkan loader")
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		glfw.Terminate()
		return pkgerrors.Wrap(err, "failed to create window")
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetCloseCallback(p.closeCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	p.startTime = glfw.GetTime()
	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// PumpMessages processes pending window events. It returns false once the
// window has been asked to close.
func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

// FramebufferSize is the drawable size in pixels, zero while minimized.
func (p *Platform) FramebufferSize() (int, int) {
	return p.Window.GetFramebufferSize()
}

// WaitEvents blocks until at least one event arrives.
func (p *Platform) WaitEvents() {
	glfw.WaitEvents()
}

// AbsoluteTime is the time in seconds since Startup.
func (p *Platform) AbsoluteTime() float64 {
	return glfw.GetTime() - p.startTime
}

func (p *Platform) GetRequiredExtensionNames() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

func (p *Platform) CreateVulkanSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := p.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, pkgerrors.Wrap(err, "vulkan surface creation failed")
	}
	return vk.SurfaceFromPointer(surface), nil
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyUnknown {
		return
	}
	var context core.EventContext
	context.Data.U16[0] = uint16(key)
	switch action {
	case glfw.Press:
		p.events.Fire(core.EVENT_CODE_KEY_PRESSED, p, context)
	case glfw.Release:
		p.events.Fire(core.EVENT_CODE_KEY_RELEASED, p, context)
	}
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	var context core.EventContext
	context.Data.U32[0] = uint32(width)
	context.Data.U32[1] = uint32(height)
	p.events.Fire(core.EVENT_CODE_RESIZED, p, context)
}

func (p *Platform) closeCallback(w *glfw.Window) {
	p.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, p, core.EventContext{})
}

// KeyEscape is the key code the platform reports for the escape key.
const KeyEscape = uint16(glfw.KeyEscape)
