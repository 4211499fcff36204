package vulkan

import (
	"math"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	pkgerrors "github.com/pkg/errors"

	"github.com/spaghettifunk/rebound/engine/assets/loaders"
	"github.com/spaghettifunk/rebound/engine/containers"
	"github.com/spaghettifunk/rebound/engine/core"
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

// Platform is what the backend needs from the windowing layer.
type Platform interface {
	GetRequiredExtensionNames() []string
	CreateVulkanSurface(instance vk.Instance) (vk.Surface, error)
}

type VulkanRenderer struct {
	platform Platform
	config   *metadata.RendererBackendConfig

	context     *VulkanContext
	renderpass  *VulkanRenderpass
	surface     *Surface
	descriptors *VulkanDescriptors
	pipeline    *VulkanPipeline
	frames      *containers.Ring[*FrameSlot]
	geometry    *GeometryBuffer
}

func New(p Platform, config *metadata.RendererBackendConfig) *VulkanRenderer {
	return &VulkanRenderer{
		platform: p,
		config:   config,
		context: NewVulkanContext(DebugOptions{
			EnableValidation: config.EnableValidation,
			SeverityFilter:   config.Severity,
			Callback:         LogDebugCallback,
		}),
		geometry: &GeometryBuffer{},
	}
}

func (vr *VulkanRenderer) Initialize() error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return pkgerrors.Wrap(core.ErrMissingExtension, "GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		return pkgerrors.Wrap(err, "vk.Init")
	}

	// TODO: custom allocator.
	vr.context.Allocator = nil

	if err := vr.context.createInstance(vr.config.ApplicationName, vr.platform.GetRequiredExtensionNames()); err != nil {
		return err
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := vr.platform.CreateVulkanSurface(vr.context.Instance)
	if err != nil {
		return pkgerrors.Wrap(err, "create window surface")
	}
	vr.context.Surface = surface
	core.LogDebug("Vulkan surface created.")

	if err := DeviceCreate(vr.context); err != nil {
		return err
	}

	// The render pass outlives every surface generation, so its colour
	// format is fixed here from the first support query.
	device := vr.context.Device
	if err := DeviceQuerySwapchainSupport(device.PhysicalDevice, vr.context.Surface, &device.SwapchainSupport); err != nil {
		return err
	}
	colorFormat := ChooseSurfaceFormat(device.SwapchainSupport.Formats).Format
	rp, err := RenderpassCreate(vr.context, colorFormat, vr.config.ClearColour, 1.0, 0)
	if err != nil {
		return err
	}
	vr.renderpass = rp
	vr.surface = NewSurface(vr.context, vr.renderpass)

	framesInFlight := vr.FramesInFlight()
	descriptors, err := NewVulkanDescriptors(vr.context, framesInFlight)
	if err != nil {
		return err
	}
	vr.descriptors = descriptors

	if err := vr.createPipeline(); err != nil {
		return err
	}

	slots := make([]*FrameSlot, framesInFlight)
	for i := range slots {
		slot, err := NewFrameSlot(vr.context, uint32(i), vr.descriptors)
		if err != nil {
			for _, s := range slots[:i] {
				s.Destroy(vr.context)
			}
			return err
		}
		slots[i] = slot
	}
	vr.frames = containers.NewRing(slots)

	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

// createPipeline builds the scene pipeline. Shader modules are released as
// soon as the pipeline exists.
func (vr *VulkanRenderer) createPipeline() error {
	vertexCode, err := loaders.LoadSPIRV(vr.config.VertexShader)
	if err != nil {
		return err
	}
	fragmentCode, err := loaders.LoadSPIRV(vr.config.FragmentShader)
	if err != nil {
		return err
	}

	vertexStage, err := NewShaderStage(vr.context, vertexCode, vk.ShaderStageVertexBit)
	if err != nil {
		return err
	}
	defer vertexStage.Destroy(vr.context)
	fragmentStage, err := NewShaderStage(vr.context, fragmentCode, vk.ShaderStageFragmentBit)
	if err != nil {
		return err
	}
	defer fragmentStage.Destroy(vr.context)

	config := DefaultPipelineConfig(
		vr.renderpass,
		[]vk.DescriptorSetLayout{vr.descriptors.Layout},
		[]vk.PipelineShaderStageCreateInfo{vertexStage.ShaderStageCreateInfo, fragmentStage.ShaderStageCreateInfo},
	)
	pipeline, err := NewGraphicsPipeline(vr.context, config)
	if err != nil {
		return err
	}
	vr.pipeline = pipeline
	return nil
}

func (vr *VulkanRenderer) FramesInFlight() uint32 {
	return vr.config.FramesInFlight
}

func (vr *VulkanRenderer) slot(index uint32) *FrameSlot {
	return vr.frames.At(int(index))
}

func (vr *VulkanRenderer) WaitForFence(slot uint32) error {
	return vr.slot(slot).InFlight.FenceWait(vr.context, math.MaxUint64)
}

func (vr *VulkanRenderer) ResetFence(slot uint32) error {
	return vr.slot(slot).InFlight.FenceReset(vr.context)
}

func (vr *VulkanRenderer) AcquireNextImage(slot uint32) (uint32, error) {
	g := vr.surface.Current()
	if g == nil {
		return 0, pkgerrors.Wrap(core.ErrNotInitialized, "no surface generation")
	}
	return g.AcquireNextImageIndex(vr.context, math.MaxUint64, vr.slot(slot).ImageAvailable)
}

func (vr *VulkanRenderer) UniformMemory(slot uint32) []byte {
	return vr.slot(slot).UniformBytes()
}

func (vr *VulkanRenderer) RecordCommands(slot, imageIndex uint32) error {
	frame := vr.slot(slot)
	g := vr.surface.Current()
	if g == nil || int(imageIndex) >= len(g.Framebuffers) {
		return pkgerrors.Errorf("image index %d has no framebuffer", imageIndex)
	}

	cb := frame.CommandBuffer
	if err := cb.Reset(); err != nil {
		return err
	}
	if err := cb.Begin(false, false, false); err != nil {
		return err
	}

	vr.renderpass.RenderpassBegin(cb, g.Framebuffers[imageIndex], g.Extent)
	vr.pipeline.Bind(cb, vk.PipelineBindPointGraphics)

	// Dynamic state. The projection is already flipped, so the viewport
	// keeps a positive height.
	viewport := vk.Viewport{
		X:        0.0,
		Y:        0.0,
		Width:    float32(g.Extent.Width),
		Height:   float32(g.Extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: g.Extent,
	}
	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{scissor})

	vk.CmdBindDescriptorSets(cb.Handle, vk.PipelineBindPointGraphics, vr.pipeline.PipelineLayout, 0, 1, []vk.DescriptorSet{frame.DescriptorSet}, 0, nil)
	vr.geometry.Draw(cb)

	vr.renderpass.RenderpassEnd(cb)
	return cb.End()
}

func (vr *VulkanRenderer) Submit(slot uint32) error {
	frame := vr.slot(slot)

	// Each semaphore waits on the corresponding pipeline stage to complete. 1:1 ratio.
	// VK_PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT prevents subsequent colour attachment
	// writes from executing until the semaphore signals (i.e. one frame is presented at a time)
	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{frame.ImageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{frame.CommandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{frame.RenderFinished},
	}

	device := vr.context.Device
	if err := vr.context.locks.SafeQueueCall(uint32(device.GraphicsQueueIndex), func() error {
		return ResultError("vkQueueSubmit", vk.QueueSubmit(device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, frame.InFlight.Handle))
	}); err != nil {
		return err
	}
	frame.CommandBuffer.UpdateSubmitted()
	return nil
}

func (vr *VulkanRenderer) Present(slot, imageIndex uint32) error {
	g := vr.surface.Current()
	if g == nil {
		return pkgerrors.Wrap(core.ErrNotInitialized, "no surface generation")
	}
	return g.Present(vr.context, vr.slot(slot).RenderFinished, imageIndex)
}

func (vr *VulkanRenderer) RebuildSurface(windowExtent metadata.Extent2D) (metadata.SurfaceDescription, error) {
	g, err := vr.surface.Rebuild(windowExtent)
	if err != nil {
		return metadata.SurfaceDescription{}, err
	}
	return g.Description(), nil
}

func (vr *VulkanRenderer) WaitIdle() error {
	if vr.context.Device.LogicalDevice == nil {
		return nil
	}
	return ResultError("vkDeviceWaitIdle", vk.DeviceWaitIdle(vr.context.Device.LogicalDevice))
}

// SetGeometry idles the device before touching the buffers, so it may be
// called at any point between ticks.
func (vr *VulkanRenderer) SetGeometry(mesh *metadata.MeshData) error {
	if vr.context.Device.LogicalDevice == nil {
		return pkgerrors.Wrap(core.ErrNotInitialized, "set geometry")
	}
	if err := vr.WaitIdle(); err != nil {
		return err
	}
	return vr.geometry.SetContent(vr.context, mesh)
}

// Shutdown destroys in the opposite order of creation. It is safe after a
// partial Initialize.
func (vr *VulkanRenderer) Shutdown() error {
	if err := vr.WaitIdle(); err != nil {
		core.LogWarn("device wait idle failed during shutdown: %s", err)
	}

	if vr.context.Device.LogicalDevice != nil {
		vr.geometry.Destroy(vr.context)
		if vr.frames != nil {
			vr.frames.Each(func(_ int, s *FrameSlot) {
				s.Destroy(vr.context)
			})
			vr.frames = nil
		}
		vr.pipeline.Destroy(vr.context)
		vr.pipeline = nil
		if vr.descriptors != nil {
			vr.descriptors.Destroy(vr.context)
			vr.descriptors = nil
		}
		if vr.surface != nil {
			vr.surface.Destroy()
			vr.surface = nil
		}
		vr.renderpass.RenderpassDestroy(vr.context)
		vr.renderpass = nil

		core.LogDebug("Destroying Vulkan device...")
		DeviceDestroy(vr.context)
	}

	if vr.context.Surface != vk.NullSurface {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(vr.context.Instance, vr.context.Surface, vr.context.Allocator)
		vr.context.Surface = vk.NullSurface
	}

	vr.context.destroyInstance()
	return nil
}
