package vulkan

import (
	vk "github.com/goki/vulkan"
	pkgerrors "github.com/pkg/errors"

	"github.com/spaghettifunk/rebound/engine/core"
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

/**
 * @brief Holds a Vulkan pipeline and its layout.
 */
type VulkanPipeline struct {
	/** @brief The internal pipeline handle. */
	Handle vk.Pipeline
	/** @brief The pipeline layout. */
	PipelineLayout vk.PipelineLayout
}

type VulkanPipelineConfig struct {
	/** @brief The renderpass the pipeline draws in, subpass 0. */
	Renderpass *VulkanRenderpass
	/** @brief The stride of the vertex data to be used (ex: sizeof(vertex_3d)) */
	Stride uint32
	/** @brief An array of attributes. */
	Attributes []vk.VertexInputAttributeDescription
	/** @brief An array of descriptor set layouts. */
	DescriptorSetLayouts []vk.DescriptorSetLayout
	/** @brief An array of stages. */
	Stages []vk.PipelineShaderStageCreateInfo
	/** @brief The face cull mode. */
	CullMode vk.CullModeFlagBits
	/** @brief Indicates if this pipeline should use wireframe mode. */
	IsWireframe bool
	DepthTest   bool
	DepthWrite  bool
}

// VertexAttributes describes the interleaved position, normal and colour of
// a vertex at locations 0, 1 and 2 of binding 0.
func VertexAttributes() []vk.VertexInputAttributeDescription {
	offsets := []uint32{
		metadata.VertexPositionOffset,
		metadata.VertexNormalOffset,
		metadata.VertexColourOffset,
	}
	attributes := make([]vk.VertexInputAttributeDescription, len(offsets))
	for i, offset := range offsets {
		attributes[i] = vk.VertexInputAttributeDescription{
			Binding:  0,
			Location: uint32(i),
			Format:   vk.FormatR32g32b32Sfloat,
			Offset:   offset,
		}
	}
	return attributes
}

// DefaultPipelineConfig is the configuration of the single scene pipeline:
// back face culling, filled triangles and a depth test that writes.
func DefaultPipelineConfig(renderpass *VulkanRenderpass, layouts []vk.DescriptorSetLayout, stages []vk.PipelineShaderStageCreateInfo) *VulkanPipelineConfig {
	return &VulkanPipelineConfig{
		Renderpass:           renderpass,
		Stride:               metadata.VertexStride,
		Attributes:           VertexAttributes(),
		DescriptorSetLayouts: layouts,
		Stages:               stages,
		CullMode:             vk.CullModeBackBit,
		IsWireframe:          false,
		DepthTest:            true,
		DepthWrite:           true,
	}
}

func NewGraphicsPipeline(context *VulkanContext, config *VulkanPipelineConfig) (*VulkanPipeline, error) {
	outPipeline := &VulkanPipeline{}

	// Viewport and scissor are dynamic, only the counts are baked in.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	// Rasterizer
	rasterizerCreateInfo := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             vk.PolygonModeFill,
		LineWidth:               1.0,
		CullMode:                vk.CullModeFlags(config.CullMode),
		FrontFace:               vk.FrontFaceCounterClockwise,
		DepthBiasEnable:         vk.False,
		DepthBiasConstantFactor: 0.0,
		DepthBiasClamp:          0.0,
		DepthBiasSlopeFactor:    0.0,
	}
	if config.IsWireframe {
		rasterizerCreateInfo.PolygonMode = vk.PolygonModeLine
	}

	// Multisampling.
	multisamplingCreateInfo := vk.PipelineMultisampleStateCreateInfo{
		SType:                 vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:   vk.False,
		RasterizationSamples:  vk.SampleCount1Bit,
		MinSampleShading:      1.0,
		PSampleMask:           nil,
		AlphaToCoverageEnable: vk.False,
		AlphaToOneEnable:      vk.False,
	}

	// Depth and stencil testing.
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vk.False,
		DepthWriteEnable:      vk.False,
		DepthBoundsTestEnable: vk.False,
		StencilTestEnable:     vk.False,
	}
	if config.DepthTest {
		depthStencil.DepthTestEnable = vk.True
		depthStencil.DepthCompareOp = vk.CompareOpLess
	}
	if config.DepthWrite {
		depthStencil.DepthWriteEnable = vk.True
	}

	// Opaque geometry, blending stays off.
	colorBlendAttachmentState := vk.PipelineColorBlendAttachmentState{
		BlendEnable: vk.False,
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
	}

	colorBlendStateCreateInfo := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachmentState},
	}

	// Dynamic state
	dynamicStates := []vk.DynamicState{
		vk.DynamicStateViewport,
		vk.DynamicStateScissor,
	}
	dynamicStateCreateInfo := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	// Vertex input
	bindingDescription := vk.VertexInputBindingDescription{
		Binding:   0, // Binding index
		Stride:    config.Stride,
		InputRate: vk.VertexInputRateVertex, // Move to next data entry for each vertex.
	}

	// Attributes
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{bindingDescription},
		VertexAttributeDescriptionCount: uint32(len(config.Attributes)),
		PVertexAttributeDescriptions:    config.Attributes,
	}

	// Input assembly
	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               vk.PrimitiveTopologyTriangleList,
		PrimitiveRestartEnable: vk.False,
	}

	// Pipeline layout
	pipelineLayoutCreateInfo := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(config.DescriptorSetLayouts)),
		PSetLayouts:            config.DescriptorSetLayouts,
		PushConstantRangeCount: 0,
		PPushConstantRanges:    nil,
	}

	device := context.Device.LogicalDevice
	if err := context.locks.SafeCall(PipelineManagement, func() error {
		return ResultError("vkCreatePipelineLayout", vk.CreatePipelineLayout(device, &pipelineLayoutCreateInfo, context.Allocator, &outPipeline.PipelineLayout))
	}); err != nil {
		return nil, err
	}

	// Pipeline create
	pipelineCreateInfo := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(config.Stages)),
		PStages:             config.Stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizerCreateInfo,
		PMultisampleState:   &multisamplingCreateInfo,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendStateCreateInfo,
		PDynamicState:       &dynamicStateCreateInfo,
		PTessellationState:  nil,
		Layout:              outPipeline.PipelineLayout,
		RenderPass:          config.Renderpass.Handle,
		Subpass:             0,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}

	pipelines := make([]vk.Pipeline, 1)
	if err := context.locks.SafeCall(PipelineManagement, func() error {
		return ResultError("vkCreateGraphicsPipelines", vk.CreateGraphicsPipelines(
			device,
			vk.NullPipelineCache,
			1,
			[]vk.GraphicsPipelineCreateInfo{pipelineCreateInfo},
			context.Allocator,
			pipelines))
	}); err != nil {
		outPipeline.Destroy(context)
		return nil, err
	}
	if pipelines[0] == vk.NullPipeline {
		outPipeline.Destroy(context)
		return nil, pkgerrors.New("vulkan pipeline handle is nil")
	}
	outPipeline.Handle = pipelines[0]

	core.LogDebug("Graphics pipeline created!")
	return outPipeline, nil
}

func (pipeline *VulkanPipeline) Destroy(context *VulkanContext) {
	if pipeline == nil {
		return
	}
	device := context.Device.LogicalDevice
	context.locks.SafeCall(PipelineManagement, func() error {
		if pipeline.Handle != vk.NullPipeline {
			vk.DestroyPipeline(device, pipeline.Handle, context.Allocator)
			pipeline.Handle = vk.NullPipeline
		}
		if pipeline.PipelineLayout != nil {
			vk.DestroyPipelineLayout(device, pipeline.PipelineLayout, context.Allocator)
			pipeline.PipelineLayout = nil
		}
		return nil
	})
}

func (pipeline *VulkanPipeline) Bind(commandBuffer *VulkanCommandBuffer, bindPoint vk.PipelineBindPoint) {
	vk.CmdBindPipeline(commandBuffer.Handle, bindPoint, pipeline.Handle)
}
