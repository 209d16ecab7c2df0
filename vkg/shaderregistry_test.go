package vkg

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func storageImage(set, binding uint32) DescriptorBinding {
	return DescriptorBinding{Set: set, Binding: binding, Kind: vk.DescriptorTypeStorageImage, Count: 1}
}

func storageBuffer(set, binding uint32) DescriptorBinding {
	return DescriptorBinding{Set: set, Binding: binding, Kind: vk.DescriptorTypeStorageBuffer, Count: 1}
}

func testShaders() []*ShaderMetadata {
	return []*ShaderMetadata{
		{
			Name:     "cs",
			Stage:    vk.ShaderStageComputeBit,
			Bindings: []DescriptorBinding{storageImage(0, 0), storageImage(0, 1), storageBuffer(0, 2)},
		},
		{Name: "vs", Stage: vk.ShaderStageVertexBit},
		{
			Name:     "fs",
			Stage:    vk.ShaderStageFragmentBit,
			Bindings: []DescriptorBinding{storageImage(0, 0), storageBuffer(2, 0)},
		},
	}
}

func TestMergeDescriptorLayouts(t *testing.T) {
	plan, err := MergeDescriptorLayouts(testShaders())
	require.NoError(t, err)

	assert.Equal(t, uint32(3), plan.SetCount)
	assert.Equal(t, []LayoutBinding{
		{Set: 0, Binding: 0, Kind: vk.DescriptorTypeStorageImage, Count: 1, Stages: vk.ShaderStageComputeBit | vk.ShaderStageFragmentBit},
		{Set: 0, Binding: 1, Kind: vk.DescriptorTypeStorageImage, Count: 1, Stages: vk.ShaderStageComputeBit},
		{Set: 0, Binding: 2, Kind: vk.DescriptorTypeStorageBuffer, Count: 1, Stages: vk.ShaderStageComputeBit},
		{Set: 2, Binding: 0, Kind: vk.DescriptorTypeStorageBuffer, Count: 1, Stages: vk.ShaderStageFragmentBit},
	}, plan.Bindings)

	assert.Equal(t, []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeStorageImage, DescriptorCount: 2},
		{Type: vk.DescriptorTypeStorageBuffer, DescriptorCount: 2},
	}, plan.PoolSizes)

	assert.Len(t, plan.SetBindings(0), 3)
	assert.Empty(t, plan.SetBindings(1))
	assert.Len(t, plan.SetBindings(2), 1)
}

func TestMergeDescriptorLayoutsOrderIndependent(t *testing.T) {
	shaders := testShaders()
	want, err := MergeDescriptorLayouts(shaders)
	require.NoError(t, err)

	for _, order := range [][]int{{2, 1, 0}, {1, 2, 0}, {2, 0, 1}} {
		permuted := make([]*ShaderMetadata, len(order))
		for i, j := range order {
			permuted[i] = shaders[j]
		}
		got, err := MergeDescriptorLayouts(permuted)
		require.NoError(t, err)
		assert.Equal(t, want, got, "order %v", order)
	}
}

func TestMergeDescriptorLayoutsConflict(t *testing.T) {
	for _, tc := range []struct {
		name     string
		conflict DescriptorBinding
	}{
		{"kind", storageBuffer(0, 1)},
		{"count", DescriptorBinding{Set: 0, Binding: 1, Kind: vk.DescriptorTypeStorageImage, Count: 3}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			shaders := append(testShaders(), &ShaderMetadata{
				Name:     "other",
				Stage:    vk.ShaderStageFragmentBit,
				Bindings: []DescriptorBinding{tc.conflict},
			})

			_, err := MergeDescriptorLayouts(shaders)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConflictingDescriptor))

			var conflict *ConflictingDescriptorError
			require.True(t, errors.As(err, &conflict))
			assert.Equal(t, uint32(0), conflict.Set)
			assert.Equal(t, uint32(1), conflict.Binding)
		})
	}
}

func TestMergeDescriptorLayoutsEmpty(t *testing.T) {
	plan, err := MergeDescriptorLayouts([]*ShaderMetadata{{Name: "vs", Stage: vk.ShaderStageVertexBit}})
	require.NoError(t, err)
	assert.Zero(t, plan.SetCount)
	assert.Empty(t, plan.Bindings)
	assert.Empty(t, plan.PoolSizes)
}

func TestShaderRegistry(t *testing.T) {
	var r ShaderRegistry
	shaders := testShaders()

	handles := make([]ShaderHandle, len(shaders))
	for i, s := range shaders {
		handles[i] = r.Register(s)
	}
	assert.Equal(t, []ShaderHandle{0, 1, 2}, handles)
	assert.Equal(t, 3, r.Len())

	s, ok := r.Get(handles[2])
	require.True(t, ok)
	assert.Same(t, shaders[2], s)

	_, ok = r.Get(3)
	assert.False(t, ok)
	_, ok = r.Get(-1)
	assert.False(t, ok)

	list := r.Shaders()
	list[0] = nil
	s, _ = r.Get(0)
	assert.NotNil(t, s)
}
