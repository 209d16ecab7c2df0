package vkg

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Buffer is a VkBuffer bound to its own, dedicated DeviceMemory. The memory
// is bound once at creation and released together with the buffer.
type Buffer struct {
	Device   *Device
	VKBuffer vk.Buffer
	Size     uint64
	Usage    vk.BufferUsageFlagBits
	Memory   *DeviceMemory
}

// CreateBuffer creates a buffer, allocates memory with the given properties for it
// and binds the two together
func (d *Device) CreateBuffer(sizeInBytes uint64, usage vk.BufferUsageFlagBits, props vk.MemoryPropertyFlagBits) (*Buffer, error) {

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(sizeInBytes),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	err := vkError(vk.CreateBuffer(d.VKDevice, &bufferCreateInfo, nil, &buffer))
	if err != nil {
		return nil, err
	}

	var ret Buffer
	ret.VKBuffer = buffer
	ret.Device = d
	ret.Size = sizeInBytes
	ret.Usage = usage

	mr := ret.VKMemoryRequirements()
	mr.Deref()

	mem, err := d.Allocate(uint64(mr.Size), mr.MemoryTypeBits, props)
	if err != nil {
		vk.DestroyBuffer(d.VKDevice, buffer, nil)
		return nil, err
	}

	err = vkError(vk.BindBufferMemory(d.VKDevice, buffer, mem.VKDeviceMemory, 0))
	if err != nil {
		mem.Destroy()
		vk.DestroyBuffer(d.VKDevice, buffer, nil)
		return nil, errors.Wrap(err, "binding buffer memory")
	}

	ret.Memory = mem

	return &ret, nil

}

// CreateStagingBuffer creates a host visible buffer to copy data into an image from
func (d *Device) CreateStagingBuffer(sizeInBytes uint64) (*Buffer, error) {
	return d.CreateBuffer(sizeInBytes, vk.BufferUsageTransferSrcBit,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
}

// CreateStorageBuffer creates a host visible, host coherent storage buffer
// which is rewritten from the CPU every frame
func (d *Device) CreateStorageBuffer(sizeInBytes uint64) (*Buffer, error) {
	return d.CreateBuffer(sizeInBytes, vk.BufferUsageStorageBufferBit,
		vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
}

func (b *Buffer) VKMemoryRequirements() vk.MemoryRequirements {
	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(b.Device.VKDevice, b.VKBuffer, &memoryRequirements)
	return memoryRequirements
}

// MapBytes maps the first n bytes of the buffer, hands them to fn and unmaps
func (b *Buffer) MapBytes(n uint64, fn func(data []byte)) error {
	if n > b.Size {
		return errors.Errorf("mapping %d bytes of a %d byte buffer", n, b.Size)
	}
	ptr, err := b.Memory.MapWithSize(n)
	if err != nil {
		return err
	}
	fn(ToBytes(ptr, int(n)))
	b.Memory.Unmap()
	return nil
}

// Write copies data to the start of the buffer
func (b *Buffer) Write(data []byte) error {
	return b.MapBytes(uint64(len(data)), func(dst []byte) {
		copy(dst, data)
	})
}

// Pointer returns a mapped pointer to the whole buffer, call Unmap when done
func (b *Buffer) Pointer() (unsafe.Pointer, error) {
	return b.Memory.Map()
}

func (b *Buffer) Unmap() {
	b.Memory.Unmap()
}

// BufferInfo describes the whole buffer as a storage buffer descriptor
func (b *Buffer) BufferInfo() BufferInfo {
	return BufferInfo{
		Buffer: b.VKBuffer,
		Offset: 0,
		Range:  vk.DeviceSize(vk.WholeSize),
		Kind:   vk.DescriptorTypeStorageBuffer,
	}
}

// Destroy frees the memory, then the buffer handle
func (b *Buffer) Destroy() {
	if b.Memory != nil {
		b.Memory.Destroy()
		b.Memory = nil
	}
	vk.DestroyBuffer(b.Device.VKDevice, b.VKBuffer, nil)
}
