package vkg

import (
	vk "github.com/vulkan-go/vulkan"
)

// ImageInfo is what an image binding is written with
type ImageInfo struct {
	View    vk.ImageView
	Layout  vk.ImageLayout
	Sampler vk.Sampler
	Kind    vk.DescriptorType
}

// ImageDescriptor is anything which can be bound to an image binding
type ImageDescriptor interface {
	ImageInfo() ImageInfo
}

// BufferInfo is what a buffer binding is written with
type BufferInfo struct {
	Buffer vk.Buffer
	Offset vk.DeviceSize
	Range  vk.DeviceSize
	Kind   vk.DescriptorType
}

// BufferDescriptor is anything which can be bound to a buffer binding
type BufferDescriptor interface {
	BufferInfo() BufferInfo
}

// DescriptorSet is a binding of resources to a descriptor, per a specific DescriptorSetLayout
type DescriptorSet struct {
	Device          *Device
	DescriptorPool  *DescriptorPool
	Set             uint32
	VKDescriptorSet vk.DescriptorSet
}

// WriteImages writes len(images) consecutive array elements of binding,
// starting at element. All images must share the kind of the first.
func (du *DescriptorSet) WriteImages(binding, element uint32, images ...ImageDescriptor) {
	if len(images) == 0 {
		return
	}
	infos := make([]vk.DescriptorImageInfo, len(images))
	var kind vk.DescriptorType
	for i, img := range images {
		info := img.ImageInfo()
		if i == 0 {
			kind = info.Kind
		}
		infos[i] = vk.DescriptorImageInfo{
			Sampler:     info.Sampler,
			ImageView:   info.View,
			ImageLayout: info.Layout,
		}
	}

	du.write(vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      binding,
		DstArrayElement: element,
		DescriptorCount: uint32(len(infos)),
		DescriptorType:  kind,
		PImageInfo:      infos,
	})
}

// WriteBuffers writes len(buffers) consecutive array elements of binding,
// starting at element. All buffers must share the kind of the first.
func (du *DescriptorSet) WriteBuffers(binding, element uint32, buffers ...BufferDescriptor) {
	if len(buffers) == 0 {
		return
	}
	infos := make([]vk.DescriptorBufferInfo, len(buffers))
	var kind vk.DescriptorType
	for i, b := range buffers {
		info := b.BufferInfo()
		if i == 0 {
			kind = info.Kind
		}
		infos[i] = vk.DescriptorBufferInfo{
			Buffer: info.Buffer,
			Offset: info.Offset,
			Range:  info.Range,
		}
	}

	du.write(vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstBinding:      binding,
		DstArrayElement: element,
		DescriptorCount: uint32(len(infos)),
		DescriptorType:  kind,
		PBufferInfo:     infos,
	})
}

func (du *DescriptorSet) write(w vk.WriteDescriptorSet) {
	w.DstSet = du.VKDescriptorSet
	vk.UpdateDescriptorSets(du.Device.VKDevice, 1, []vk.WriteDescriptorSet{w}, 0, nil)
}
