package vkg

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
	"golang.org/x/exp/slog"
)

// Device is the logical device together with the single queue and command
// pool this package ever uses. Every other object keeps a pointer back to it
// and must be destroyed before it.
type Device struct {
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device

	Queue       *Queue
	CommandPool *CommandPool

	logger *slog.Logger
}

func (d *Device) Destroy() {
	if d.CommandPool != nil {
		d.CommandPool.Destroy()
		d.CommandPool = nil
	}
	vk.DestroyDevice(d.VKDevice, nil)
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.PhysicalDevice)
}

func (d *Device) Logger() *slog.Logger {
	if d.logger == nil {
		return slog.Default()
	}
	return d.logger
}

func (d *Device) WaitIdle() error {
	return vkError(vk.DeviceWaitIdle(d.VKDevice))
}

func (d *Device) GetQueue(qf *QueueFamily) *Queue {

	var vkq vk.Queue

	vk.GetDeviceQueue(d.VKDevice, uint32(qf.Index), 0, &vkq)

	var queue Queue
	queue.QueueFamily = qf
	queue.Device = d
	queue.VKQueue = vkq

	return &queue
}

// Allocate allocates memory of the given size from the first memory type allowed
// by memoryTypeBits that has all the requested properties
func (d *Device) Allocate(sizeInBytes uint64, memoryTypeBits uint32, memoryProperties vk.MemoryPropertyFlagBits) (*DeviceMemory, error) {

	var allocateInfo = vk.MemoryAllocateInfo{}
	allocateInfo.SType = vk.StructureTypeMemoryAllocateInfo
	allocateInfo.AllocationSize = vk.DeviceSize(sizeInBytes)

	var err error

	allocateInfo.MemoryTypeIndex, err = d.PhysicalDevice.FindMemoryType(
		memoryTypeBits,
		memoryProperties)

	if err != nil {
		return nil, err
	}

	var deviceMemory vk.DeviceMemory

	err = vkError(vk.AllocateMemory(d.VKDevice, &allocateInfo, nil, &deviceMemory))
	if err != nil {
		return nil, errors.Wrapf(err, "allocating %d bytes", sizeInBytes)
	}

	var ret DeviceMemory

	ret.Size = sizeInBytes
	ret.Device = d
	ret.VKDeviceMemory = deviceMemory

	return &ret, nil
}

// OneTimeSubmit records a throwaway command buffer with fn, submits it and
// waits for the queue to drain before freeing it.
func (d *Device) OneTimeSubmit(fn func(cb *CommandBuffer)) error {
	cb, err := d.CommandPool.AllocateBuffer()
	if err != nil {
		return err
	}
	defer d.CommandPool.FreeBuffer(cb)

	err = cb.BeginOneTime()
	if err != nil {
		return err
	}

	fn(cb)

	err = cb.End()
	if err != nil {
		return err
	}

	return d.Queue.SubmitWaitIdle(cb)
}
