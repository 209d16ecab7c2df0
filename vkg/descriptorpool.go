package vkg

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorPool is essentially a resource manager for descriptor pools provided by Vulkan.
type DescriptorPool struct {
	Device               *Device
	VKDescriptorPool     vk.DescriptorPool
	VKDescriptorPoolSize []vk.DescriptorPoolSize
}

// CreateDescriptorPool creates a pool holding sizes descriptors spread over at most maxSets sets
func (d *Device) CreateDescriptorPool(sizes []vk.DescriptorPoolSize, maxSets uint32) (*DescriptorPool, error) {
	if len(sizes) == 0 {
		return nil, errors.New("descriptor pool needs at least one pool size")
	}

	var descriptorPoolCreateInfo = vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}

	var descriptorPool vk.DescriptorPool
	err := vkError(vk.CreateDescriptorPool(d.VKDevice, &descriptorPoolCreateInfo, nil, &descriptorPool))

	if err != nil {
		return nil, err
	}

	return &DescriptorPool{
		Device:               d,
		VKDescriptorPool:     descriptorPool,
		VKDescriptorPoolSize: sizes,
	}, nil
}

// Allocate allocates a descriptor set from the pool given the descriptor set layout
func (d *DescriptorPool) Allocate(layout *DescriptorSetLayout) (*DescriptorSet, error) {

	descriptorSetAllocateInfo := vk.DescriptorSetAllocateInfo{}
	descriptorSetAllocateInfo.SType = vk.StructureTypeDescriptorSetAllocateInfo
	descriptorSetAllocateInfo.DescriptorPool = d.VKDescriptorPool
	descriptorSetAllocateInfo.DescriptorSetCount = 1
	descriptorSetAllocateInfo.PSetLayouts = []vk.DescriptorSetLayout{layout.VKDescriptorSetLayout}

	var descriptorSet vk.DescriptorSet
	err := vkError(vk.AllocateDescriptorSets(d.Device.VKDevice, &descriptorSetAllocateInfo, &descriptorSet))

	if err != nil {
		return nil, err
	}

	var ret DescriptorSet

	ret.Device = d.Device
	ret.VKDescriptorSet = descriptorSet
	ret.DescriptorPool = d
	ret.Set = layout.Set

	return &ret, nil

}

func (d *DescriptorPool) Reset() error {
	return vkError(vk.ResetDescriptorPool(d.Device.VKDevice, d.VKDescriptorPool, 0))
}

// Destroy destroys the pool and with it every set allocated from it
func (d *DescriptorPool) Destroy() {
	vk.DestroyDescriptorPool(d.Device.VKDevice, d.VKDescriptorPool, nil)
}
