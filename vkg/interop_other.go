//go:build !windows

package vkg

import (
	vk "github.com/vulkan-go/vulkan"
)

// InteropSupported reports whether NewInteropSwapchain can work on this platform
const InteropSupported = false

// InteropExtensions are the device extensions the interop swapchain needs
var InteropExtensions []string

// NewInteropSwapchain is only available on Windows
func NewInteropSwapchain(d *Device, window uintptr, extent vk.Extent2D) (*InteropSwapchain, error) {
	return nil, ErrInteropUnsupported
}
