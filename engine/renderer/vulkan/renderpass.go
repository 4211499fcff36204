package vulkan

import (
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
)

/**
 * @brief The single render pass: colour cleared and stored for present,
 * depth cleared and discarded.
 */
type VulkanRenderpass struct {
	Handle      vk.RenderPass
	ColorFormat vk.Format
	DepthFormat vk.Format

	ClearColour mgl32.Vec4
	Depth       float32
	Stencil     uint32
}

func RenderpassCreate(context *VulkanContext, colorFormat vk.Format, clearColour mgl32.Vec4, depth float32, stencil uint32) (*VulkanRenderpass, error) {
	outRenderpass := &VulkanRenderpass{
		ColorFormat: colorFormat,
		DepthFormat: context.Device.DepthFormat,
		ClearColour: clearColour,
		Depth:       depth,
		Stencil:     stencil,
	}

	attachmentDescriptions := []vk.AttachmentDescription{
		// Color attachment
		{
			Format:         colorFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,  // Do not expect any particular layout before render pass starts.
			FinalLayout:    vk.ImageLayoutPresentSrc, // Transitioned to after the render pass
		},
		// Depth attachment
		{
			Format:         outRenderpass.DepthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	colorAttachmentReference := []vk.AttachmentReference{
		{
			Attachment: 0, // Attachment description array index
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		},
	}
	depthAttachmentReference := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       colorAttachmentReference,
		PDepthStencilAttachment: &depthAttachmentReference,
	}

	// Colour output and the early depth test both wait for the previous use
	// of the attachments.
	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) | vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit)
	dependency := vk.SubpassDependency{
		SrcSubpass:      vk.SubpassExternal,
		DstSubpass:      0,
		SrcStageMask:    stages,
		SrcAccessMask:   0,
		DstStageMask:    stages,
		DstAccessMask:   vk.AccessFlags(vk.AccessColorAttachmentWriteBit) | vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
		DependencyFlags: 0,
	}

	renderpassCreateInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachmentDescriptions)),
		PAttachments:    attachmentDescriptions,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}

	if err := ResultError("vkCreateRenderPass", vk.CreateRenderPass(context.Device.LogicalDevice, &renderpassCreateInfo, context.Allocator, &outRenderpass.Handle)); err != nil {
		return nil, err
	}
	return outRenderpass, nil
}

func (vr *VulkanRenderpass) RenderpassDestroy(context *VulkanContext) {
	if vr != nil && vr.Handle != nil {
		vk.DestroyRenderPass(context.Device.LogicalDevice, vr.Handle, context.Allocator)
		vr.Handle = nil
	}
}

func (vr *VulkanRenderpass) RenderpassBegin(commandBuffer *VulkanCommandBuffer, frameBuffer *VulkanFramebuffer, extent vk.Extent2D) {
	clearValues := make([]vk.ClearValue, 2)
	clearValues[0].SetColor(vr.ClearColour[:])
	clearValues[1].SetDepthStencil(vr.Depth, vr.Stencil)

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  vr.Handle,
		Framebuffer: frameBuffer.Handle,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}

	vk.CmdBeginRenderPass(commandBuffer.Handle, &beginInfo, vk.SubpassContentsInline)
	commandBuffer.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (vr *VulkanRenderpass) RenderpassEnd(commandBuffer *VulkanCommandBuffer) {
	vk.CmdEndRenderPass(commandBuffer.Handle)
	commandBuffer.State = COMMAND_BUFFER_STATE_RECORDING
}
