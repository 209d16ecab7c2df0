package vkg

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type Queue struct {
	Device      *Device
	QueueFamily *QueueFamily
	VKQueue     vk.Queue
}

func (q *Queue) WaitIdle() error {
	return vkError(vk.QueueWaitIdle(q.VKQueue))
}

func (q *Queue) SubmitWaitIdle(buffers ...*CommandBuffer) error {
	err := q.Submit(SubmitInfo{Buffers: buffers}, nil)
	if err != nil {
		return err
	}
	return q.WaitIdle()
}

// SubmitInfo is a single batch of work. When TimelineValue is non zero the wait
// and signal semaphores are timeline semaphores, waited on and signaled at that value.
type SubmitInfo struct {
	Buffers       []*CommandBuffer
	Wait          []vk.Semaphore
	WaitStages    []vk.PipelineStageFlagBits
	Signal        []vk.Semaphore
	TimelineValue uint64
}

// Submit submits the batch, signaling fence when it completes if fence is not nil
func (q *Queue) Submit(info SubmitInfo, fence *Fence) error {
	var chain cChain
	defer chain.free()

	b := make([]vk.CommandBuffer, len(info.Buffers))
	for i := range info.Buffers {
		b[i] = info.Buffers[i].VKCommandBuffer
	}

	stages := make([]vk.PipelineStageFlags, len(info.WaitStages))
	for i, s := range info.WaitStages {
		stages[i] = vk.PipelineStageFlags(s)
	}

	var submitInfo = vk.SubmitInfo{}
	submitInfo.SType = vk.StructureTypeSubmitInfo
	submitInfo.CommandBufferCount = uint32(len(b))
	submitInfo.PCommandBuffers = b
	submitInfo.WaitSemaphoreCount = uint32(len(info.Wait))
	submitInfo.PWaitSemaphores = info.Wait
	submitInfo.PWaitDstStageMask = stages
	submitInfo.SignalSemaphoreCount = uint32(len(info.Signal))
	submitInfo.PSignalSemaphores = info.Signal

	if info.TimelineValue != 0 {
		wait := make([]uint64, len(info.Wait))
		for i := range wait {
			wait[i] = info.TimelineValue
		}
		signal := make([]uint64, len(info.Signal))
		for i := range signal {
			signal[i] = info.TimelineValue
		}
		submitInfo.PNext = chain.timelineSubmitInfo(wait, signal)
	}

	var vkFence vk.Fence
	if fence != nil {
		vkFence = fence.VKFence
	}

	return vkError(vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{submitInfo}, vkFence))
}

// Present queues image index of swapchain for presentation after wait is signaled
func (q *Queue) Present(swapchain vk.Swapchain, index uint32, wait vk.Semaphore) vk.Result {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{swapchain},
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait},
		PImageIndices:      []uint32{index},
	}
	return vk.QueuePresent(q.VKQueue, &presentInfo)
}

func (q *Queue) String() string {
	return fmt.Sprintf("{Device: %s QueueFamily: %s}", q.Device.String(), q.QueueFamily.String())
}
