//go:build windows

package vkg

import (
	"unsafe"

	"github.com/vulkan-go/glfw/v3.3/glfw"
)

// nativeWindow returns the HWND of window
func nativeWindow(window *glfw.Window) uintptr {
	return uintptr(unsafe.Pointer(window.GetWin32Window()))
}
