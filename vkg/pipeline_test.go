package vkg

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestPushConstantRanges(t *testing.T) {
	assert.Nil(t, pushConstantRanges(vk.ShaderStageComputeBit, 0))

	ranges := pushConstantRanges(vk.ShaderStageComputeBit, 8)
	if assert.Len(t, ranges, 1) {
		assert.Equal(t, uint32(0), ranges[0].Offset)
		assert.Equal(t, uint32(8), ranges[0].Size)
		assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageComputeBit), ranges[0].StageFlags)
	}
}

func TestPipelineStageMismatch(t *testing.T) {
	d := &Device{}
	vs := &ShaderMetadata{Name: "vs", Stage: vk.ShaderStageVertexBit}
	fs := &ShaderMetadata{Name: "fs", Stage: vk.ShaderStageFragmentBit}

	_, err := d.CreateComputePipeline(vs, nil, 0)
	assert.True(t, errors.Is(err, ErrPipelineCreation))

	_, err = d.CreateGraphicsPipeline(fs, vs, nil, 0, nil, vk.Extent2D{})
	assert.True(t, errors.Is(err, ErrPipelineCreation))
}

func TestShaderModuleRejectsBadLength(t *testing.T) {
	d := &Device{}
	_, err := d.CreateShaderModule("empty", nil)
	assert.Error(t, err)
	_, err = d.CreateShaderModule("odd", make([]byte, 6))
	assert.Error(t, err)
}
