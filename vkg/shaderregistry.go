package vkg

import (
	"sort"

	vk "github.com/vulkan-go/vulkan"
)

// DescriptorBinding is one resource binding a shader declares
type DescriptorBinding struct {
	Set     uint32
	Binding uint32
	Kind    vk.DescriptorType
	Count   uint32
}

// ShaderMetadata describes a single shader stage: its SPIR-V, entry point and
// the descriptor bindings it reads or writes. It is not modified once registered.
type ShaderMetadata struct {
	Name     string
	Entry    string
	Stage    vk.ShaderStageFlagBits
	Code     []byte
	Bindings []DescriptorBinding
}

// ShaderHandle identifies a shader within the registry it was registered with
type ShaderHandle int

// ShaderRegistry holds every shader a backend builds pipelines from. Descriptor
// set layouts are derived from the union of all registered shaders.
type ShaderRegistry struct {
	shaders []*ShaderMetadata
}

func (r *ShaderRegistry) Register(s *ShaderMetadata) ShaderHandle {
	r.shaders = append(r.shaders, s)
	return ShaderHandle(len(r.shaders) - 1)
}

func (r *ShaderRegistry) Get(h ShaderHandle) (*ShaderMetadata, bool) {
	if h < 0 || int(h) >= len(r.shaders) {
		return nil, false
	}
	return r.shaders[h], true
}

func (r *ShaderRegistry) Len() int {
	return len(r.shaders)
}

// Shaders returns the registered shaders in registration order
func (r *ShaderRegistry) Shaders() []*ShaderMetadata {
	ret := make([]*ShaderMetadata, len(r.shaders))
	copy(ret, r.shaders)
	return ret
}

// LayoutBinding is a merged binding, visible to every stage that declared it
type LayoutBinding struct {
	Set     uint32
	Binding uint32
	Kind    vk.DescriptorType
	Count   uint32
	Stages  vk.ShaderStageFlagBits
}

// DescriptorLayoutPlan is the merged binding table of a set of shaders
type DescriptorLayoutPlan struct {
	// SetCount is one past the highest set index declared
	SetCount uint32
	// Bindings sorted by set, then binding
	Bindings []LayoutBinding
	// PoolSizes has one entry per descriptor kind, sorted by kind
	PoolSizes []vk.DescriptorPoolSize
}

// SetBindings returns the bindings of a single set
func (p *DescriptorLayoutPlan) SetBindings(set uint32) []LayoutBinding {
	var ret []LayoutBinding
	for _, b := range p.Bindings {
		if b.Set == set {
			ret = append(ret, b)
		}
	}
	return ret
}

type bindingKey struct {
	set, binding uint32
}

// MergeDescriptorLayouts unions the bindings of shaders by (set, binding). Two
// declarations of the same slot must agree on kind and count; their stages are
// combined. The result does not depend on the order of shaders.
func MergeDescriptorLayouts(shaders []*ShaderMetadata) (*DescriptorLayoutPlan, error) {
	merged := make(map[bindingKey]*LayoutBinding)

	for _, s := range shaders {
		for _, b := range s.Bindings {
			k := bindingKey{b.Set, b.Binding}
			existing, ok := merged[k]
			if !ok {
				merged[k] = &LayoutBinding{
					Set:     b.Set,
					Binding: b.Binding,
					Kind:    b.Kind,
					Count:   b.Count,
					Stages:  s.Stage,
				}
				continue
			}
			if existing.Kind != b.Kind || existing.Count != b.Count {
				return nil, &ConflictingDescriptorError{Set: b.Set, Binding: b.Binding}
			}
			existing.Stages |= s.Stage
		}
	}

	plan := &DescriptorLayoutPlan{}
	counts := make(map[vk.DescriptorType]uint32)

	for _, b := range merged {
		plan.Bindings = append(plan.Bindings, *b)
		if b.Set+1 > plan.SetCount {
			plan.SetCount = b.Set + 1
		}
		counts[b.Kind] += b.Count
	}

	sort.Slice(plan.Bindings, func(i, j int) bool {
		a, b := plan.Bindings[i], plan.Bindings[j]
		if a.Set != b.Set {
			return a.Set < b.Set
		}
		return a.Binding < b.Binding
	})

	for kind, n := range counts {
		plan.PoolSizes = append(plan.PoolSizes, vk.DescriptorPoolSize{Type: kind, DescriptorCount: n})
	}
	sort.Slice(plan.PoolSizes, func(i, j int) bool {
		return plan.PoolSizes[i].Type < plan.PoolSizes[j].Type
	})

	return plan, nil
}
