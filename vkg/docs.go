/*
Package vkg is a thin layer over Vulkan which turns shader metadata and a window into a working
compute + graphics pipeline. It does not try to expose everything Vulkan can do: there is one
device, one queue, one command pool and one render pass. Native handles are exposed on every
object under fields prefixed with 'VK', so anything the package does not wrap can still be
done with the raw vulkan-go API.

Ownership

Every object holds a pointer to the Device it was created from and must be destroyed before it.
Destroy releases memory before the handle it backs, and a pipeline before its layout and
shader modules. Images wrapping swapchain owned handles never destroy the handle.

Shaders and descriptors

Shaders are described by ShaderMetadata: SPIR-V, entry point, stage and the descriptor bindings
the shader declares. Shaders are registered with the Backend, and AllocateDescriptorSet merges
their bindings into a DescriptorLayoutPlan, creates one layout per set and a pool sized for
the plan. Two shaders declaring the same (set, binding) with a different kind or count is a
ConflictingDescriptorError.

Frames

A frame goes through the Backend in three steps:

	1. BeginFrame waits for the frame slot and acquires a swapchain image
	2. the caller records Frame.CommandBuffer
	3. DrawFrame submits it and presents the image

BeginFrame returns ErrSwapchainStale when the surface changed under the swapchain, the caller
is expected to Resize and try again.

Swapchains

NativeSwapchain presents through VK_KHR_swapchain. On Windows InteropSwapchain renders into
DXGI back buffers imported through VK_KHR_external_memory_win32 and presents with DXGI, which
allows tearing presentation with a flip model swapchain. Frames are ordered with two timeline
semaphores instead of binary ones.

Native Vulkan terms
	Instance 	the vulkan runtime instance
	PhysicalDevice	the physical hardware device
	Device		the logical device, target of most of the vulkan apis
	Queue 		where command buffers are submitted
	DeviceMemory	an allocation backing a buffer or an image
	DescriptorSet 	the resources bound to shaders
	Swapchain	the images which are presented to the window
*/
package vkg
