package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rebound/engine/core"
)

// VulkanImage is an image with its own memory and a single view.
type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
}

func ImageCreate(context *VulkanContext, width, height uint32, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlags, memoryFlags vk.MemoryPropertyFlags, createView bool, viewAspectFlags vk.ImageAspectFlags) (*VulkanImage, error) {
	outImage := &VulkanImage{
		Width:  width,
		Height: height,
	}

	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}

	device := context.Device.LogicalDevice
	if err := ResultError("vkCreateImage", vk.CreateImage(device, &imageCreateInfo, context.Allocator, &outImage.Handle)); err != nil {
		return nil, err
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, outImage.Handle, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType, err := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, memoryFlags)
	if err != nil {
		core.LogError("Required memory type not found. Image not valid.")
		outImage.ImageDestroy(context)
		return nil, err
	}

	memoryAllocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: memoryType,
	}
	if err := ResultError("vkAllocateMemory", vk.AllocateMemory(device, &memoryAllocateInfo, context.Allocator, &outImage.Memory)); err != nil {
		outImage.ImageDestroy(context)
		return nil, err
	}
	if err := ResultError("vkBindImageMemory", vk.BindImageMemory(device, outImage.Handle, outImage.Memory, 0)); err != nil {
		outImage.ImageDestroy(context)
		return nil, err
	}

	if createView {
		view, err := createImageView(context, outImage.Handle, format, viewAspectFlags)
		if err != nil {
			outImage.ImageDestroy(context)
			return nil, err
		}
		outImage.View = view
	}
	return outImage, nil
}

func createImageView(context *VulkanContext, image vk.Image, format vk.Format, aspectFlags vk.ImageAspectFlags) (vk.ImageView, error) {
	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspectFlags,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if err := ResultError("vkCreateImageView", vk.CreateImageView(context.Device.LogicalDevice, &viewCreateInfo, context.Allocator, &view)); err != nil {
		return nil, err
	}
	return view, nil
}

func (image *VulkanImage) ImageDestroy(context *VulkanContext) {
	if image == nil {
		return
	}
	device := context.Device.LogicalDevice
	if image.View != nil {
		vk.DestroyImageView(device, image.View, context.Allocator)
		image.View = nil
	}
	if image.Memory != nil {
		vk.FreeMemory(device, image.Memory, context.Allocator)
		image.Memory = nil
	}
	if image.Handle != nil {
		vk.DestroyImage(device, image.Handle, context.Allocator)
		image.Handle = nil
	}
}
