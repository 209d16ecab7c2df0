package vkg

import (
	vk "github.com/vulkan-go/vulkan"
)

// CommandBuffers describe a sequence of commands that will be executed
// upon being sent to a device queue. Not all available vulkan commands
// are wrapped by this package. It is expected that the calling application
// must call the native vulkan command APIs.
type CommandBuffer struct {
	VKCommandBuffer vk.CommandBuffer
}

// Reset this command buffer
func (c *CommandBuffer) Reset() error {
	return vkError(vk.ResetCommandBuffer(c.VKCommandBuffer, 0))
}

// VK is a utility function for accessing the native vulkan command buffer
func (c *CommandBuffer) VK() vk.CommandBuffer {
	return c.VKCommandBuffer
}

// Begin capturing work for this command buffer
func (c *CommandBuffer) Begin() error {
	var beginInfo = vk.CommandBufferBeginInfo{}
	beginInfo.SType = vk.StructureTypeCommandBufferBeginInfo
	beginInfo.Flags = 0
	return vkError(vk.BeginCommandBuffer(c.VKCommandBuffer, &beginInfo))

}

// BeginOneTime begins capturing work for this command buffer, with the stipulation that it will only be used once (instead of put back in the pool of command buffers)
func (c *CommandBuffer) BeginOneTime() error {
	var beginInfo = vk.CommandBufferBeginInfo{}
	beginInfo.SType = vk.StructureTypeCommandBufferBeginInfo
	beginInfo.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	return vkError(vk.BeginCommandBuffer(c.VKCommandBuffer, &beginInfo))

}

// End describing work for this command buffer
func (c *CommandBuffer) End() error {
	return vkError(vk.EndCommandBuffer(c.VKCommandBuffer))
}

// Record resets the buffer and records fn into it
func (c *CommandBuffer) Record(fn func(cb *CommandBuffer)) error {
	err := c.Reset()
	if err != nil {
		return err
	}
	err = c.Begin()
	if err != nil {
		return err
	}
	fn(c)
	return c.End()
}

func (c *CommandBuffer) BindPipeline(p Pipeline) {
	vk.CmdBindPipeline(c.VKCommandBuffer, p.BindPoint(), p.Handle())
}

// BindDescriptorSet binds set as set 0 of the pipeline's layout
func (c *CommandBuffer) BindDescriptorSet(p Pipeline, set *DescriptorSet) {
	vk.CmdBindDescriptorSets(c.VKCommandBuffer, p.BindPoint(),
		p.Layout().VKPipelineLayout, 0, 1, []vk.DescriptorSet{set.VKDescriptorSet}, 0, nil)
}

// PushConstants uploads data to the pipeline's push constant range
func (c *CommandBuffer) PushConstants(p Pipeline, stages vk.ShaderStageFlagBits, data []byte) {
	if len(data) == 0 {
		return
	}
	vk.CmdPushConstants(c.VKCommandBuffer, p.Layout().VKPipelineLayout, vk.ShaderStageFlags(stages), 0, uint32(len(data)), ptrOf(data))
}

func (c *CommandBuffer) Dispatch(x, y, z uint32) {
	vk.CmdDispatch(c.VKCommandBuffer, x, y, z)
}

func (c *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(c.VKCommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance)
}

// WithRenderPass records fn inside rp targeting fb, clearing to the render pass clear color
func (c *CommandBuffer) WithRenderPass(rp *RenderPass, fb *Framebuffer, fn func(cb *CommandBuffer)) {
	clear := vk.NewClearValue(rp.ClearColor[:])

	beginInfo := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.VKRenderPass,
		Framebuffer: fb.VKFramebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: fb.Extent,
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{clear},
	}

	vk.CmdBeginRenderPass(c.VKCommandBuffer, &beginInfo, vk.SubpassContentsInline)
	fn(c)
	vk.CmdEndRenderPass(c.VKCommandBuffer)
}
