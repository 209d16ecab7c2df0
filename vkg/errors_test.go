package vkg

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestKindKeepsCause(t *testing.T) {
	cause := &ConflictingDescriptorError{Set: 0, Binding: 2}
	err := withKind(ErrSetup, cause)

	assert.True(t, errors.Is(err, ErrSetup))
	assert.True(t, errors.Is(err, ErrConflictingDescriptor))
	assert.False(t, errors.Is(err, ErrResizeFailure))

	var conflict *ConflictingDescriptorError
	if assert.True(t, errors.As(err, &conflict)) {
		assert.Equal(t, uint32(2), conflict.Binding)
	}
	assert.Equal(t, "vulkan setup failed: conflicting descriptor declarations at set 0 binding 2", err.Error())
}

func TestKindfReachesVulkanResult(t *testing.T) {
	oom := vk.Error(vk.ErrorOutOfDeviceMemory)
	err := withKindf(ErrResizeFailure, vkError(vk.ErrorOutOfDeviceMemory), "recreating swapchain")

	assert.True(t, errors.Is(err, ErrResizeFailure))
	assert.True(t, errors.Is(err, oom))
	assert.Equal(t, "resize failed: recreating swapchain: "+oom.Error(), err.Error())
}

func TestPipelineErrorKeepsCause(t *testing.T) {
	cause := errors.New("bad spirv")
	err := pipelineError(cause, "compute shader %s", "glyphs")

	assert.True(t, errors.Is(err, ErrPipelineCreation))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "pipeline creation failed: compute shader glyphs: bad spirv", err.Error())
}
