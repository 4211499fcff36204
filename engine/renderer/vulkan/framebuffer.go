package vulkan

import (
	vk "github.com/goki/vulkan"
)

type VulkanFramebuffer struct {
	Handle      vk.Framebuffer
	Attachments []vk.ImageView
	Renderpass  *VulkanRenderpass
}

func FramebufferCreate(context *VulkanContext, renderpass *VulkanRenderpass, width uint32, height uint32, attachments []vk.ImageView) (*VulkanFramebuffer, error) {
	// Keep a copy of the attachments.
	outFramebuffer := &VulkanFramebuffer{
		Attachments: append([]vk.ImageView(nil), attachments...),
		Renderpass:  renderpass,
	}

	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderpass.Handle,
		AttachmentCount: uint32(len(outFramebuffer.Attachments)),
		PAttachments:    outFramebuffer.Attachments,
		Width:           width,
		Height:          height,
		Layers:          1,
	}

	if err := ResultError("vkCreateFramebuffer", vk.CreateFramebuffer(context.Device.LogicalDevice, &framebufferCreateInfo, context.Allocator, &outFramebuffer.Handle)); err != nil {
		return nil, err
	}
	return outFramebuffer, nil
}

func (vfb *VulkanFramebuffer) Destroy(context *VulkanContext) {
	if vfb == nil {
		return
	}
	if vfb.Handle != nil {
		vk.DestroyFramebuffer(context.Device.LogicalDevice, vfb.Handle, context.Allocator)
		vfb.Handle = nil
	}
	vfb.Attachments = nil
	vfb.Renderpass = nil
}
