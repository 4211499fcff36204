package vulkan

import (
	vk "github.com/goki/vulkan"
	pkgerrors "github.com/pkg/errors"

	"github.com/spaghettifunk/rebound/engine/core"
)

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

// NewShaderStage wraps SPIR-V words in a shader module for the given stage.
// The module is only needed until the pipeline has been created.
func NewShaderStage(context *VulkanContext, code []uint32, stage vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	if len(code) == 0 {
		return nil, pkgerrors.Wrap(core.ErrInvalidShader, "empty shader code")
	}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}

	out := &VulkanShaderStage{}
	if err := ResultError("vkCreateShaderModule", vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &out.Handle)); err != nil {
		return nil, pkgerrors.Wrap(core.ErrInvalidShader, err.Error())
	}

	out.ShaderStageCreateInfo = vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: out.Handle,
		PName:  VulkanSafeString("main"),
	}
	return out, nil
}

func (s *VulkanShaderStage) Destroy(context *VulkanContext) {
	if s == nil || s.Handle == nil {
		return
	}
	vk.DestroyShaderModule(context.Device.LogicalDevice, s.Handle, context.Allocator)
	s.Handle = nil
}
