//go:build windows

package vkg

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// InteropSupported reports whether NewInteropSwapchain can work on this platform
const InteropSupported = true

// InteropExtensions are the device extensions the interop swapchain needs
var InteropExtensions = []string{"VK_KHR_external_memory_win32"}

// NewInteropSwapchain creates a DXGI swapchain for window on the adapter the
// Vulkan device runs on, window being an HWND
func NewInteropSwapchain(d *Device, window uintptr, extent vk.Extent2D) (*InteropSwapchain, error) {
	luid, ok := d.PhysicalDevice.LUID()
	if !ok {
		return nil, errors.Wrapf(ErrSetup, "%s has no LUID", d.PhysicalDevice)
	}

	foreign, err := newDXGISwapchain(luid, window, extent)
	if err != nil {
		return nil, withKind(ErrSetup, err)
	}

	s, err := newInteropSwapchain(d, foreign, &win32Importer{device: d}, extent)
	if err != nil {
		foreign.Destroy()
		return nil, err
	}
	return s, nil
}
