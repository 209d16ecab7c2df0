package vkg

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestDeviceReportProblems(t *testing.T) {
	good := DeviceReport{
		QueueFamily:                 &QueueFamily{},
		Vulkan12Features:            Vulkan12Features{TimelineSemaphore: true, VulkanMemoryModel: true},
		StorageImageExtendedFormats: true,
	}
	assert.True(t, good.Suitable())
	assert.Empty(t, good.Problems())

	bad := DeviceReport{
		MissingExtensions: []string{"VK_KHR_external_memory_win32"},
		Vulkan12Features:  Vulkan12Features{VulkanMemoryModel: true},
	}
	assert.False(t, bad.Suitable())
	assert.Equal(t, []string{
		"no queue family supports graphics, compute and present",
		"missing extension VK_KHR_external_memory_win32",
		"missing feature timelineSemaphore",
		"missing feature shaderStorageImageExtendedFormats",
	}, bad.Problems())
}

func TestSelectPhysicalDeviceNoDevices(t *testing.T) {
	_, err := SelectPhysicalDevice(nil, vk.NullSurface, RequiredDeviceExtensions)
	assert.True(t, errors.Is(err, ErrSetup))
}
