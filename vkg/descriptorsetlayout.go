package vkg

import (
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorSetLayout describes the layout of a descriptorset
type DescriptorSetLayout struct {
	Device                        *Device
	Set                           uint32
	VKDescriptorSetLayout         vk.DescriptorSetLayout
	VKDescriptorSetLayoutBindings []vk.DescriptorSetLayoutBinding
}

// Destroy destroys this descriptor set layout
func (d *DescriptorSetLayout) Destroy() {
	vk.DestroyDescriptorSetLayout(d.Device.VKDevice, d.VKDescriptorSetLayout, nil)
}

// CreateDescriptorSetLayout creates the layout of one set from merged bindings
func (d *Device) CreateDescriptorSetLayout(set uint32, bindings []LayoutBinding) (*DescriptorSetLayout, error) {
	layout := &DescriptorSetLayout{Device: d, Set: set}
	for _, b := range bindings {
		layout.VKDescriptorSetLayoutBindings = append(layout.VKDescriptorSetLayoutBindings, vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  b.Kind,
			DescriptorCount: b.Count,
			StageFlags:      vk.ShaderStageFlags(b.Stages),
		})
	}

	var descriptorSetLayoutCreateInfo = &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(layout.VKDescriptorSetLayoutBindings)),
		PBindings:    layout.VKDescriptorSetLayoutBindings,
	}

	err := vkError(vk.CreateDescriptorSetLayout(d.VKDevice, descriptorSetLayoutCreateInfo, nil, &layout.VKDescriptorSetLayout))
	if err != nil {
		return nil, err
	}

	return layout, nil
}

// CreateDescriptorSetLayouts creates one layout per set of plan. Sets no shader
// declares get an empty layout so that set indices stay contiguous.
func (d *Device) CreateDescriptorSetLayouts(plan *DescriptorLayoutPlan) ([]*DescriptorSetLayout, error) {
	ret := make([]*DescriptorSetLayout, 0, plan.SetCount)
	for set := uint32(0); set < plan.SetCount; set++ {
		l, err := d.CreateDescriptorSetLayout(set, plan.SetBindings(set))
		if err != nil {
			for _, created := range ret {
				created.Destroy()
			}
			return nil, err
		}
		ret = append(ret, l)
	}
	return ret, nil
}
