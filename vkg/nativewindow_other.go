//go:build !windows

package vkg

import (
	"github.com/vulkan-go/glfw/v3.3/glfw"
)

// nativeWindow is only needed by the interop swapchain
func nativeWindow(window *glfw.Window) uintptr {
	return 0
}
