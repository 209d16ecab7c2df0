package vkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestFindMemoryType(t *testing.T) {
	types := []vk.MemoryType{
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)},
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)},
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)},
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit | vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)},
	}

	i, err := findMemoryType(types, 0b1111, vk.MemoryPropertyDeviceLocalBit)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), i)

	i, err = findMemoryType(types, 0b1111, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), i)

	i, err = findMemoryType(types, 0b1010, vk.MemoryPropertyDeviceLocalBit)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), i, "types outside the mask are skipped")

	_, err = findMemoryType(types, 0b0110, vk.MemoryPropertyDeviceLocalBit)
	assert.Error(t, err)
}

func TestMissingExtensions(t *testing.T) {
	available := []string{"VK_KHR_swapchain", "VK_KHR_external_memory", "VK_EXT_other"}

	assert.Empty(t, missing([]string{"VK_KHR_swapchain", "VK_KHR_external_memory"}, available))
	assert.Equal(t, []string{"VK_KHR_external_memory_win32"},
		missing([]string{"VK_KHR_swapchain", "VK_KHR_external_memory_win32"}, available))
	assert.Empty(t, missing(nil, available))
}
