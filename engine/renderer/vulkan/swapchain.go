package vulkan

import (
	"math"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/spaghettifunk/rebound/engine/core"
	enginemath "github.com/spaghettifunk/rebound/engine/math"
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

type VulkanSwapchainSupportInfo struct {
	Capabilities     vk.SurfaceCapabilities
	FormatCount      uint32
	Formats          []vk.SurfaceFormat
	PresentModeCount uint32
	PresentModes     []vk.PresentMode
}

// ChooseSurfaceFormat prefers B8G8R8A8_SRGB with a non-linear sRGB colour
// space and otherwise takes the first format reported.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, format := range formats {
		if format.Format == vk.FormatB8g8r8a8Srgb && format.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return format
		}
	}
	if len(formats) == 0 {
		return vk.SurfaceFormat{Format: vk.FormatUndefined}
	}
	return formats[0]
}

// ChoosePresentMode prefers MAILBOX. FIFO is always available.
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

// ChooseExtent uses the surface's current extent when it is defined and the
// window framebuffer size otherwise, clamped to what the surface allows.
func ChooseExtent(capabilities vk.SurfaceCapabilities, window metadata.Extent2D) vk.Extent2D {
	if capabilities.CurrentExtent.Width != math.MaxUint32 {
		return capabilities.CurrentExtent
	}
	min := capabilities.MinImageExtent
	max := capabilities.MaxImageExtent
	return vk.Extent2D{
		Width:  enginemath.Clamp(window.Width, min.Width, max.Width),
		Height: enginemath.Clamp(window.Height, min.Height, max.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum, within the
// maximum when the surface has one.
func ChooseImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && imageCount > capabilities.MaxImageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

/**
 * @brief One build of the presentation surface. A generation owns every
 * handle that depends on the extent and destroys them together.
 */
type Generation struct {
	Number uint64
	ID     uuid.UUID

	Handle      vk.Swapchain
	Format      vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	ImageCount  uint32
	Images      []vk.Image
	Views       []vk.ImageView

	DepthAttachment *VulkanImage

	// framebuffers used for on-screen rendering, one per image.
	Framebuffers []*VulkanFramebuffer
}

func (g *Generation) Description() metadata.SurfaceDescription {
	return metadata.SurfaceDescription{
		Generation:  g.Number,
		ID:          g.ID,
		Extent:      metadata.Extent2D{Width: g.Extent.Width, Height: g.Extent.Height},
		ColorFormat: int32(g.Format.Format),
		ColorSpace:  int32(g.Format.ColorSpace),
		PresentMode: int32(g.PresentMode),
		ImageCount:  g.ImageCount,
	}
}

func (g *Generation) AcquireNextImageIndex(context *VulkanContext, timeoutNS uint64, imageAvailableSemaphore vk.Semaphore) (uint32, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(context.Device.LogicalDevice, g.Handle, timeoutNS, imageAvailableSemaphore, vk.NullFence, &imageIndex)
	// A suboptimal image can still be drawn to; the present reports it again.
	if result == vk.Suboptimal {
		return imageIndex, nil
	}
	if err := ResultError("vkAcquireNextImageKHR", result); err != nil {
		return 0, err
	}
	return imageIndex, nil
}

func (g *Generation) Present(context *VulkanContext, renderCompleteSemaphore vk.Semaphore, presentImageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderCompleteSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{g.Handle},
		PImageIndices:      []uint32{presentImageIndex},
		PResults:           nil,
	}
	return context.locks.SafeQueueCall(uint32(context.Device.PresentQueueIndex), func() error {
		return ResultError("vkQueuePresentKHR", vk.QueuePresent(context.Device.PresentQueue, &presentInfo))
	})
}

// Destroy releases the generation's handles in reverse creation order. The
// caller guarantees the device is idle.
func (g *Generation) Destroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	for _, fb := range g.Framebuffers {
		fb.Destroy(context)
	}
	g.Framebuffers = nil

	g.DepthAttachment.ImageDestroy(context)
	g.DepthAttachment = nil

	// Only destroy the views, not the images, since those are owned by the
	// swapchain and are destroyed with it.
	for i, view := range g.Views {
		if view != nil {
			vk.DestroyImageView(device, view, context.Allocator)
			g.Views[i] = nil
		}
	}
	g.Views = nil
	g.Images = nil

	if g.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(device, g.Handle, context.Allocator)
		g.Handle = vk.NullSwapchain
	}
}

// Surface rebuilds swapchain generations against a fixed render pass.
type Surface struct {
	context    *VulkanContext
	renderpass *VulkanRenderpass

	current    *Generation
	generation uint64
}

func NewSurface(context *VulkanContext, renderpass *VulkanRenderpass) *Surface {
	return &Surface{context: context, renderpass: renderpass}
}

func (s *Surface) Current() *Generation {
	return s.current
}

// Rebuild tears down the current generation and builds the next one for
// the given window extent. The device must be idle.
func (s *Surface) Rebuild(window metadata.Extent2D) (*Generation, error) {
	if s.current != nil {
		s.current.Destroy(s.context)
		s.current = nil
	}

	device := s.context.Device
	if err := DeviceQuerySwapchainSupport(device.PhysicalDevice, s.context.Surface, &device.SwapchainSupport); err != nil {
		return nil, err
	}

	support := device.SwapchainSupport
	next := &Generation{
		Number:      s.generation + 1,
		ID:          uuid.New(),
		Format:      ChooseSurfaceFormat(support.Formats),
		PresentMode: ChoosePresentMode(support.PresentModes),
		Extent:      ChooseExtent(support.Capabilities, window),
	}
	if next.Format.Format != s.renderpass.ColorFormat {
		return nil, pkgerrors.Errorf("surface format changed from %d to %d", s.renderpass.ColorFormat, next.Format.Format)
	}

	if err := s.build(next, ChooseImageCount(support.Capabilities)); err != nil {
		next.Destroy(s.context)
		return nil, err
	}

	s.generation = next.Number
	s.current = next
	core.LogDebug("Swapchain generation %d created: %dx%d, %d images.", next.Number, next.Extent.Width, next.Extent.Height, next.ImageCount)
	return next, nil
}

func (s *Surface) build(g *Generation, imageCount uint32) error {
	context := s.context
	device := context.Device

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      g.Format.Format,
		ImageColorSpace:  g.Format.ColorSpace,
		ImageExtent:      g.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     device.SwapchainSupport.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      g.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	if device.GraphicsQueueIndex != device.PresentQueueIndex {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeConcurrent
		swapchainCreateInfo.QueueFamilyIndexCount = 2
		swapchainCreateInfo.PQueueFamilyIndices = []uint32{
			uint32(device.GraphicsQueueIndex),
			uint32(device.PresentQueueIndex),
		}
	} else {
		swapchainCreateInfo.ImageSharingMode = vk.SharingModeExclusive
	}

	if err := ResultError("vkCreateSwapchainKHR", vk.CreateSwapchain(device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &g.Handle)); err != nil {
		return err
	}

	// Images
	if err := ResultError("vkGetSwapchainImagesKHR", vk.GetSwapchainImages(device.LogicalDevice, g.Handle, &g.ImageCount, nil)); err != nil {
		return err
	}
	g.Images = make([]vk.Image, g.ImageCount)
	if err := ResultError("vkGetSwapchainImagesKHR", vk.GetSwapchainImages(device.LogicalDevice, g.Handle, &g.ImageCount, g.Images)); err != nil {
		return err
	}

	// Views
	g.Views = make([]vk.ImageView, g.ImageCount)
	for i := range g.Images {
		view, err := createImageView(context, g.Images[i], g.Format.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			return err
		}
		g.Views[i] = view
	}

	// Depth resources
	depthAttachment, err := ImageCreate(
		context,
		g.Extent.Width,
		g.Extent.Height,
		device.DepthFormat,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit))
	if err != nil {
		return err
	}
	g.DepthAttachment = depthAttachment

	// Framebuffers
	g.Framebuffers = make([]*VulkanFramebuffer, 0, g.ImageCount)
	for i := range g.Views {
		fb, err := FramebufferCreate(context, s.renderpass, g.Extent.Width, g.Extent.Height, []vk.ImageView{g.Views[i], g.DepthAttachment.View})
		if err != nil {
			return err
		}
		g.Framebuffers = append(g.Framebuffers, fb)
	}
	return nil
}

func (s *Surface) Destroy() {
	if s.current != nil {
		s.current.Destroy(s.context)
		s.current = nil
	}
}
