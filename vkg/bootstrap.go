package vkg

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// RequiredDeviceExtensions are enabled on every device the backend creates
var RequiredDeviceExtensions = []string{"VK_KHR_swapchain", "VK_KHR_external_memory"}

// RequiredVulkan12Features are enabled on every device the backend creates
var RequiredVulkan12Features = Vulkan12Features{TimelineSemaphore: true, VulkanMemoryModel: true}

// DeviceReport is what a physical device offers against what the backend needs
type DeviceReport struct {
	Device      *PhysicalDevice
	QueueFamily *QueueFamily

	MissingExtensions           []string
	Vulkan12Features            Vulkan12Features
	StorageImageExtendedFormats bool
}

// Problems lists every requirement the device fails, none means it is usable
func (r *DeviceReport) Problems() []string {
	var ret []string
	if r.QueueFamily == nil {
		ret = append(ret, "no queue family supports graphics, compute and present")
	}
	for _, ext := range r.MissingExtensions {
		ret = append(ret, fmt.Sprintf("missing extension %s", ext))
	}
	if !r.Vulkan12Features.TimelineSemaphore {
		ret = append(ret, "missing feature timelineSemaphore")
	}
	if !r.Vulkan12Features.VulkanMemoryModel {
		ret = append(ret, "missing feature vulkanMemoryModel")
	}
	if !r.StorageImageExtendedFormats {
		ret = append(ret, "missing feature shaderStorageImageExtendedFormats")
	}
	return ret
}

func (r *DeviceReport) Suitable() bool {
	return len(r.Problems()) == 0
}

// CheckPhysicalDevice reports how p measures up to the backend's requirements.
// A null surface skips the presentation check.
func CheckPhysicalDevice(p *PhysicalDevice, surface vk.Surface, extensions []string) (*DeviceReport, error) {
	report := &DeviceReport{Device: p}

	families, err := p.QueueFamilies()
	if err != nil {
		return nil, err
	}
	if surface != vk.NullSurface {
		families = families.FilterGraphicsAndPresent(surface)
	} else {
		families = families.Filter(func(q *QueueFamily) bool {
			return q.IsGraphics() && q.IsCompute()
		})
	}
	if len(families) > 0 {
		report.QueueFamily = families[0]
	}

	report.MissingExtensions, err = p.MissingExtensions(extensions)
	if err != nil {
		return nil, err
	}

	report.Vulkan12Features = p.Vulkan12Features()
	features := p.VKPhysicalDeviceFeatures()
	report.StorageImageExtendedFormats = features.ShaderStorageImageExtendedFormats == vk.True

	return report, nil
}

// SelectPhysicalDevice returns the first device meeting every requirement
func SelectPhysicalDevice(devices []*PhysicalDevice, surface vk.Surface, extensions []string) (*DeviceReport, error) {
	if len(devices) == 0 {
		return nil, errors.Wrap(ErrSetup, "no vulkan devices found")
	}

	var rejected []string
	for _, p := range devices {
		report, err := CheckPhysicalDevice(p, surface, extensions)
		if err != nil {
			return nil, withKind(ErrSetup, err)
		}
		if report.Suitable() {
			return report, nil
		}
		rejected = append(rejected, fmt.Sprintf("%s: %s", p, strings.Join(report.Problems(), ", ")))
	}
	return nil, errors.Wrapf(ErrSetup, "no suitable device (%s)", strings.Join(rejected, "; "))
}
